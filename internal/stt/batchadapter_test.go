package stt

import (
	"context"
	"errors"
	"testing"
)

type fakeBatchProvider struct {
	text string
	err  error
}

func (f *fakeBatchProvider) Name() string { return "fake-batch" }

func (f *fakeBatchProvider) Transcribe(ctx context.Context, audioWAV []byte, lang string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestBatchAdapterDeliversFinalTranscript(t *testing.T) {
	adapter := NewBatchAdapter(&fakeBatchProvider{text: "hello there"}, nil)

	frames := make(chan []int16, 2)
	frames <- []int16{1, 2, 3}
	frames <- []int16{4, 5, 6}
	close(frames)

	var got Transcript
	err := adapter.StreamRecognize(context.Background(), frames, 16000, func(tr Transcript) error {
		got = tr
		return nil
	}, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hello there" || !got.IsFinal {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}

func TestBatchAdapterNoFramesIsNoOp(t *testing.T) {
	adapter := NewBatchAdapter(&fakeBatchProvider{text: "unused"}, nil)
	frames := make(chan []int16)
	close(frames)

	called := false
	err := adapter.StreamRecognize(context.Background(), frames, 16000, func(tr Transcript) error {
		called = true
		return nil
	}, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("onTranscript should not be called with no frames")
	}
}

func TestBatchAdapterPropagatesVendorFailureAsFatal(t *testing.T) {
	adapter := NewBatchAdapter(&fakeBatchProvider{err: errors.New("vendor down")}, nil)
	frames := make(chan []int16, 1)
	frames <- []int16{1}
	close(frames)

	err := adapter.StreamRecognize(context.Background(), frames, 16000, func(tr Transcript) error {
		return nil
	}, false, true)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
}
