package tts

import (
	"context"
	"errors"
	"testing"
)

func TestMockProviderStreamsChunksInOrder(t *testing.T) {
	p := NewMockProvider([]byte{1}, []byte{2}, []byte{3})
	var got []byte
	err := p.StreamSynthesize(context.Background(), "hi", "F1", "en", func(c []byte) error {
		got = append(got, c...)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected chunks: %v", got)
	}
}

func TestMockProviderAbortStopsBeforeNextChunk(t *testing.T) {
	p := NewMockProvider([]byte{1}, []byte{2}, []byte{3})
	var count int
	err := p.StreamSynthesize(context.Background(), "hi", "F1", "en", func(c []byte) error {
		count++
		if count == 1 {
			p.Abort(context.Background())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 chunk before abort, got %d", count)
	}
}

func TestMockProviderPropagatesOnChunkError(t *testing.T) {
	p := NewMockProvider([]byte{1}, []byte{2})
	boom := errors.New("boom")
	err := p.StreamSynthesize(context.Background(), "hi", "F1", "en", func(c []byte) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}
