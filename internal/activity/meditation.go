package activity

import (
	"context"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
)

// meditationOutcome is what ended a meditation run.
type meditationOutcome struct {
	stopped bool
	err     error
}

// runMeditation implements spec.md §4.6.f: play a guided-meditation
// track while an audio-intent recognizer listens for a "termination"
// utterance, racing audio_finished against termination_detected.
// Whichever fires first decides the handoff seed.
func runMeditation(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)

	if secsDelay := d.Config.MeditationStartDelayS; secsDelay > 0 {
		select {
		case <-time.After(secs(secsDelay)):
		case <-ctx.Done():
			return NextAction{}, ctx.Err()
		}
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan meditationOutcome, 2)

	go runMeditationPlayback(rctx, d, lang, results)
	if d.MeditationAI != nil {
		go runMeditationListener(rctx, d, results)
	}

	var res meditationOutcome
	select {
	case res = <-results:
	case <-ctx.Done():
		cancel()
		return NextAction{}, ctx.Err()
	}
	cancel()

	if err := drainWithTimeout(context.Background(), 2*time.Second, func(context.Context) error { return nil }); err != nil {
		d.Log.Warn("meditation: drain: %v", err)
	}

	if res.err != nil {
		d.Log.Warn("meditation: %v", res.err)
	}

	if res.stopped {
		return Completed(KindSmallTalk, Seed{
			SystemPrompt:  "The user stopped their meditation early.",
			OpeningPrompt: "I noticed you stopped the meditation. How are you feeling?",
		}), nil
	}
	return Completed(KindSmallTalk, Seed{
		SystemPrompt:  "The user just completed a guided meditation.",
		OpeningPrompt: "How do you feel after that meditation?",
	}), nil
}

func runMeditationPlayback(ctx context.Context, d *Deps, lang string, results chan<- meditationOutcome) {
	var err error
	if d.Config.UseAudioFiles {
		err = d.Audio.PlayFile(ctx, meditationAudioPath(lang), false, audiofabric.Config{
			SampleRate:         d.Config.SampleRateHz,
			KeepCaptureUnmuted: true,
		})
	} else {
		err = speakUnmuted(ctx, d, guidedMeditationScript(lang))
	}
	if ctx.Err() != nil {
		// the listener already won the race; this cancellation is
		// expected, not a playback failure.
		return
	}
	select {
	case results <- meditationOutcome{err: err}:
	default:
	}
}

func runMeditationListener(ctx context.Context, d *Deps, results chan<- meditationOutcome) {
	recognizer := d.MeditationAI()
	defer recognizer.Delete()

	handle, err := d.Audio.OpenCapture(d.Config.FrameSize, false)
	if err != nil {
		d.Log.Warn("meditation: audio-intent capture unavailable: %v", err)
		return
	}
	defer d.Audio.CloseCapture(handle)

	frames := d.Audio.Frames(handle)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if !recognizer.ProcessFrame(f.Samples) {
				continue
			}
			inf, ok := recognizer.GetInference()
			recognizer.Reset()
			if !ok || inf == nil || inf.Intent != "termination" {
				continue
			}
			select {
			case results <- meditationOutcome{stopped: true}:
			default:
			}
			return
		}
	}
}

func meditationAudioPath(lang string) string {
	return "assets/meditation/" + lang + ".wav"
}

func guidedMeditationScript(lang string) string {
	switch lang {
	case "es":
		return "Cierra los ojos y respira lentamente. Inhala... y exhala..."
	default:
		return "Close your eyes and breathe slowly. In... and out..."
	}
}
