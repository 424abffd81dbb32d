package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/odme-systems/sentinel/internal/anomaly/model"
)

func TestValidate_acceptsBoundedReadings(t *testing.T) {
	valid := []model.AttributeSet{
		{},
		{Intensity: 0, Aggression: 0},
		{Intensity: 100, Aggression: 100, Invisibility: true},
		{Intensity: 50, Category: model.CategoryPhantom, Location: "cellar", AgentName: "Agent Vrana"},
	}
	for _, a := range valid {
		if err := a.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", a, err)
		}
	}
}

func TestValidate_rejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		a    model.AttributeSet
	}{
		{"intensity too high", model.AttributeSet{Intensity: 101}},
		{"intensity negative", model.AttributeSet{Intensity: -1}},
		{"aggression too high", model.AttributeSet{Aggression: 100.5}},
		{"aggression negative", model.AttributeSet{Aggression: -0.1}},
		{"unknown category", model.AttributeSet{Category: "poltergeist"}},
		{"oversized notes", model.AttributeSet{Notes: strings.Repeat("x", 2001)}},
		{"oversized location", model.AttributeSet{Location: strings.Repeat("x", 501)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var validation *model.ErrValidation
			if !errors.As(err, &validation) {
				t.Errorf("error type = %T, want *model.ErrValidation", err)
			}
		})
	}
}

func TestScoringInput(t *testing.T) {
	a := model.AttributeSet{
		Intensity:    90,
		Invisibility: true,
		Aggression:   80,
		Category:     model.CategoryShapeshifter,
		Location:     "should not reach the scorer",
		Notes:        "neither should this",
	}
	in := a.ScoringInput()

	if in.Intensity != 90 || !in.Invisible || in.Aggression != 80 || in.Category != "shapeshifter" {
		t.Errorf("ScoringInput() = %+v, want readings carried over", in)
	}
}
