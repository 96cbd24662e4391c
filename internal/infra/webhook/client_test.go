package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicecalc/internal/domain"
	"voicecalc/internal/infra/webhook"
)

func TestClient_PublishesSelectedKinds(t *testing.T) {
	var received []domain.Event
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev domain.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		auth = r.Header.Get("Authorization")
		received = append(received, ev)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := webhook.NewClient(server.URL, "secret", nil, 0)
	ctx := context.Background()

	events := []domain.Event{
		{ID: "1", Kind: domain.EventKindResult, Equation: "20 + 5", Result: "25"},
		{ID: "2", Kind: domain.EventKindPartial, Transcript: "twenty"},
		{ID: "3", Kind: domain.EventKindError, Result: domain.MathError},
	}
	for _, ev := range events {
		if err := client.Publish(ctx, ev); err != nil {
			t.Fatalf("publishing %s: %v", ev.ID, err)
		}
	}

	if len(received) != 2 {
		t.Fatalf("received %d events, want 2", len(received))
	}
	if received[0].Result != "25" || received[1].ID != "3" {
		t.Errorf("unexpected events: %+v", received)
	}
	if auth != "Bearer secret" {
		t.Errorf("auth header: got %q", auth)
	}
}

func TestClient_Disabled(t *testing.T) {
	client := webhook.NewClient("", "", nil, 0)
	if err := client.Publish(context.Background(), domain.Event{Kind: domain.EventKindResult}); err != nil {
		t.Errorf("disabled client returned %v", err)
	}
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := webhook.NewClient(server.URL, "", []domain.EventKind{domain.EventKindResult}, 0)
	if err := client.Publish(context.Background(), domain.Event{Kind: domain.EventKindResult}); err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
