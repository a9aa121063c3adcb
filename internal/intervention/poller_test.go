package intervention

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestPollerSavesRecordAndFiresOnTrigger(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(SuggestResponse{
			Decision: Decision{TriggerIntervention: true, ConfidenceScore: 0.6},
		})
	}))
	defer server.Close()

	records := NewRecordStore(filepath.Join(t.TempDir(), "record.json"))
	client := NewClient(server.URL)

	triggered := make(chan *SuggestResponse, 1)
	p := New(client, records, "alice", func() string { return "evening" }, func(resp *SuggestResponse) {
		triggered <- resp
	}, nil, WithTickInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	select {
	case resp := <-triggered:
		if !resp.Decision.TriggerIntervention {
			t.Fatal("expected trigger_intervention=true")
		}
	case <-time.After(time.Second):
		t.Fatal("expected onTrigger to fire")
	}

	rec, err := records.Load()
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.LatestDecision == nil || !rec.LatestDecision.TriggerIntervention {
		t.Fatalf("expected persisted record with trigger, got %+v", rec.LatestDecision)
	}
}
