package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odme-systems/sentinel/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

const anomalyID = "7f3c1a52-0000-4000-8000-000000000001"

func stubRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/anomalies", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var attrs client.AttributeSet
			if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
				http.Error(w, `{"error":"bad json","kind":"validation"}`, http.StatusBadRequest)
				return
			}
			if attrs.Intensity > 100 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]any{
					"error": "intensity must be between 0 and 100", "kind": "validation",
				})
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"anomaly": map[string]any{
					"id": anomalyID, "status": "active",
					"current_level": "critical", "current_score": 91.0,
				},
			})
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"anomalies": []map[string]any{
					{"id": anomalyID, "status": "active", "current_level": "critical", "current_score": 91.0},
				},
				"count": 1,
			})
		}
	})

	mux.HandleFunc("/api/v1/anomalies/"+anomalyID+"/reports", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"report": map[string]any{
				"id": "a1b2c3d4-0000-4000-8000-000000000009", "anomaly_id": anomalyID,
				"level": "none", "score": 6.5,
			},
			"anomaly": map[string]any{
				"id": anomalyID, "status": "active",
				"current_level": "none", "current_score": 6.5,
			},
		})
	})

	mux.HandleFunc("/api/v1/anomalies/"+anomalyID+"/resolve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "anomaly already resolved", "kind": "invalid_state",
		})
	})

	mux.HandleFunc("/api/v1/anomalies/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"total_anomalies": 5, "unresolved_count": 2, "most_common_category": "phantom",
		})
	})

	return httptest.NewServer(mux)
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestIngest(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	anomaly, err := c.Ingest(context.Background(), client.AttributeSet{
		Intensity: 90, Invisibility: true, Aggression: 80,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if anomaly.ID != anomalyID || anomaly.CurrentLevel != "critical" {
		t.Errorf("anomaly = %+v, want id %s at critical", anomaly, anomalyID)
	}
}

func TestIngest_validationError(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Ingest(context.Background(), client.AttributeSet{Intensity: 250})

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *client.APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Kind != "validation" {
		t.Errorf("APIError = %+v, want 400/validation", apiErr)
	}
}

func TestSubmitReport(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	report, anomaly, err := c.SubmitReport(context.Background(), anomalyID, client.AttributeSet{
		Intensity: 10, Aggression: 5, AgentName: "Agent Spectra",
	})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if report.Level != "none" {
		t.Errorf("report level = %s, want none", report.Level)
	}
	if anomaly.CurrentLevel != "none" {
		t.Errorf("current level = %s, want none", anomaly.CurrentLevel)
	}
}

func TestResolve_invalidState(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Resolve(context.Background(), anomalyID)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *client.APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Kind != "invalid_state" {
		t.Errorf("APIError = %+v, want 409/invalid_state", apiErr)
	}
}

func TestList(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	anomalies, err := c.List(context.Background(), client.ListOptions{Status: "active", MinLevel: "high"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].CurrentLevel != "critical" {
		t.Errorf("List = %+v, want one critical anomaly", anomalies)
	}
}

func TestGetSummary(t *testing.T) {
	srv := stubRegistryServer(t)
	defer srv.Close()

	c := client.New(srv.URL)
	s, err := c.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if s.TotalAnomalies != 5 || s.UnresolvedCount != 2 || s.MostCommonCategory != "phantom" {
		t.Errorf("Summary = %+v", s)
	}
}
