// Package client is the Go SDK for the Sentinel anomaly registry.
//
// # Ingesting an anomaly
//
//	c := client.New("http://localhost:8080")
//	anomaly, err := c.Ingest(ctx, client.AttributeSet{
//	    Intensity:    90,
//	    Invisibility: true,
//	    Aggression:   80,
//	    Category:     "shapeshifter",
//	    Location:     "Black Lake, Sumava",
//	})
//	fmt.Println(anomaly.CurrentLevel) // critical
//
// # Filing a report
//
// Each report is re-scored and moves the anomaly's current assessment under
// the registry's aggregation policy:
//
//	report, updated, err := c.SubmitReport(ctx, anomaly.ID, client.AttributeSet{
//	    Intensity:  10,
//	    Aggression: 5,
//	    AgentName:  "Agent Spectra",
//	})
//
// # Resolving
//
// Resolution is terminal. Further reports fail with an APIError of kind
// "invalid_state":
//
//	_, err = c.Resolve(ctx, anomaly.ID)
//
// # Error handling
//
// Non-2xx responses become *APIError values carrying the HTTP status and the
// registry's machine-readable error kind:
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Kind == "invalid_state" {
//	    // anomaly was already resolved
//	}
package client
