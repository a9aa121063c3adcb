package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAISTTTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(struct {
			Text string `json:"text"`
		}{Text: "transcribed text"})
	}))
	defer server.Close()

	s := &OpenAISTT{apiKey: "test-key", model: "whisper-1", url: server.URL}

	result, err := s.Transcribe(context.Background(), []byte{0, 0, 0, 0}, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "transcribed text" {
		t.Errorf("expected 'transcribed text', got %q", result)
	}
	if s.Name() != "openai-stt" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestOpenAISTTUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer server.Close()

	s := &OpenAISTT{apiKey: "wrong", model: "whisper-1", url: server.URL}
	if _, err := s.Transcribe(context.Background(), []byte{0}, ""); err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}
