package activity

import (
	"context"
	"testing"
	"time"
)

// fakeRecognizer is an AudioIntentRecognizer that reports "termination"
// ready on the first frame it sees.
type fakeRecognizer struct {
	seen bool
}

func (r *fakeRecognizer) ProcessFrame(pcm []int16) bool {
	if r.seen {
		return false
	}
	r.seen = true
	return true
}

func (r *fakeRecognizer) GetInference() (*AudioIntentInference, bool) {
	return &AudioIntentInference{Intent: "termination", Confidence: 1}, true
}

func (r *fakeRecognizer) Reset()  {}
func (r *fakeRecognizer) Delete() {}

var _ AudioIntentRecognizer = (*fakeRecognizer)(nil)

func TestRunMeditationCompletesWhenPlaybackFinishesFirst(t *testing.T) {
	d, _ := baseTestDeps(t)
	d.Config.MeditationStartDelayS = 0
	d.Config.UseAudioFiles = false
	d.MeditationAI = nil

	next, err := runMeditation(context.Background(), d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runMeditation: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected hand-off to small_talk, got %+v", next)
	}
	if next.SeedData().SystemPrompt == "" {
		t.Fatalf("expected a seeded system prompt")
	}
}

func TestRunMeditationStoppedWhenListenerWins(t *testing.T) {
	d, audio := baseTestDeps(t)
	d.Config.MeditationStartDelayS = 0
	d.Config.UseAudioFiles = true
	d.MeditationAI = func() AudioIntentRecognizer { return &fakeRecognizer{} }

	audio.playFileDelay = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	audio.send(context.Background(), make([]int16, 160))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	next, err := runMeditation(ctx, d, &Session{User: "u1"}, Seed{})
	if err != nil {
		t.Fatalf("runMeditation: %v", err)
	}
	if next.Target() != KindSmallTalk {
		t.Fatalf("expected hand-off to small_talk, got %+v", next)
	}
	if next.SeedData().OpeningPrompt == "" {
		t.Fatalf("expected a seeded opening prompt")
	}
}
