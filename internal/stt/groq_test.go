package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGroqSTTTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(struct {
			Text string `json:"text"`
		}{Text: "groq transcription"})
	}))
	defer server.Close()

	s := &GroqSTT{apiKey: "test-key", model: "whisper-large-v3-turbo", url: server.URL}

	result, err := s.Transcribe(context.Background(), []byte{0}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "groq transcription" {
		t.Errorf("expected 'groq transcription', got %q", result)
	}
	if s.Name() != "groq-stt" {
		t.Errorf("unexpected name %q", s.Name())
	}
}
