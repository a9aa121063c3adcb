package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWavBuffer(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	sampleRate := 44100
	wav := NewWavBuffer(pcm, sampleRate)

	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Errorf("Expected RIFF prefix")
	}

	if !bytes.Contains(wav, []byte("WAVE")) {
		t.Errorf("Expected WAVE format identifier")
	}

	expectedLen := 44 + len(pcm)
	if len(wav) != expectedLen {
		t.Errorf("Expected length %d, got %d", expectedLen, len(wav))
	}
}

func TestReadWavFileRoundTrips(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	sampleRate := 16000
	wav := NewWavBuffer(pcm, sampleRate)

	path := filepath.Join(t.TempDir(), "cue.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}

	gotPCM, gotRate, err := ReadWavFile(path)
	if err != nil {
		t.Fatalf("ReadWavFile: %v", err)
	}
	if gotRate != sampleRate {
		t.Errorf("expected sample rate %d, got %d", sampleRate, gotRate)
	}
	if !bytes.Equal(gotPCM, pcm) {
		t.Errorf("expected pcm %v, got %v", pcm, gotPCM)
	}
}
