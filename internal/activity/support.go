package activity

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/audiofabric"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/config"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/persistence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/silence"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
)

// secs turns a fractional-seconds config value into a time.Duration.
func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// speak synthesizes text through the configured voice/language and
// plays it, muting the open capture handle for the duration (handled by
// Fabric.PlayPCMStream). A no-op for empty text.
func speak(ctx context.Context, d *Deps, text string) error {
	return playText(ctx, d, text, audiofabric.Config{SampleRate: d.Config.SampleRateHz})
}

// speakCue plays a nudge/acknowledge/closing cue: a short TTS utterance
// with the configured pre/post framing delays (spec §4.1 play_pcm_stream,
// §4.6's "mute mic → play nudge cue → unmute mic").
func speakCue(ctx context.Context, d *Deps, text string) error {
	return playText(ctx, d, text, audiofabric.Config{
		SampleRate:     d.Config.SampleRateHz,
		NudgePreDelay:  time.Duration(d.Config.NudgePreDelayMS) * time.Millisecond,
		NudgePostDelay: time.Duration(d.Config.NudgePostDelayMS) * time.Millisecond,
	})
}

// speakUnmuted plays text without the default mute-around-playback
// discipline, for Meditation's concurrent playback/audio-intent race
// (§4.6.f).
func speakUnmuted(ctx context.Context, d *Deps, text string) error {
	return playText(ctx, d, text, audiofabric.Config{
		SampleRate:         d.Config.SampleRateHz,
		KeepCaptureUnmuted: true,
	})
}

func playText(ctx context.Context, d *Deps, text string, cfg audiofabric.Config) error {
	if text == "" {
		return nil
	}
	chunks := make(chan []byte, 4)
	synthErrCh := make(chan error, 1)
	go func() {
		synthErrCh <- d.TTS.StreamSynthesize(ctx, text, d.Config.Voice, d.Config.Language, func(chunk []byte) error {
			select {
			case chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(chunks)
	}()

	playErr := d.Audio.PlayPCMStream(ctx, chunks, cfg.NudgePreDelay > 0 || cfg.NudgePostDelay > 0, cfg)
	if synthErr := <-synthErrCh; synthErr != nil {
		return fmt.Errorf("activity: synthesize %q: %w", truncate(text, 40), synthErr)
	}
	return playErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// pcmFrames adapts a CaptureHandle's Frame sequence to the raw []int16
// sample channel stt.StreamRecognize consumes, stopping when ctx is
// done.
func pcmFrames(ctx context.Context, d *Deps, h *audiofabric.CaptureHandle) <-chan []int16 {
	out := make(chan []int16)
	go func() {
		defer close(out)
		in := d.Audio.Frames(h)
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- f.Samples:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// listenSession opens a capture handle, runs one STT streaming call
// guarded by a silence watcher using timing's contract, and returns
// once the recognizer call returns. onTranscript is invoked in order
// for every transcript (interim and final); returning
// errkind.ErrTermination from it propagates out as err, letting
// activities implement the shared termination-phrase contract without
// duplicating the watcher/capture-handle bookkeeping. timedOut reports
// whether the silence+nudge timeout fired before the recognizer
// returned on its own.
func listenSession(ctx context.Context, d *Deps, timing config.ActivityTiming, singleUtterance bool, onTranscript func(stt.Transcript) error) (timedOut bool, err error) {
	handle, herr := d.Audio.OpenCapture(d.Config.FrameSize, false)
	if herr != nil {
		return false, herr
	}
	defer d.Audio.CloseCapture(handle)

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timedOutFlag atomic.Bool
	var watcher *silence.Watcher
	watcher = silence.New(
		secs(timing.SilenceTimeoutS),
		secs(timing.NudgeTimeoutS),
		func() {
			watcher.Pause()
			_ = speakCue(lctx, d, nudgePhrase(d.Config.Language))
			watcher.Resume()
		},
		func() {
			timedOutFlag.Store(true)
			cancel()
		},
		d.Log,
	)
	watcher.Start(lctx)
	defer watcher.Stop()

	frames := pcmFrames(lctx, d, handle)
	cb := func(t stt.Transcript) error {
		if t.Text != "" {
			watcher.Touch()
		}
		return onTranscript(t)
	}

	err = d.STT.StreamRecognize(lctx, frames, d.Config.SampleRateHz, cb, true, singleUtterance)
	if err != nil {
		if stt.IsTermination(err) {
			return timedOutFlag.Load(), err
		}
		if lctx.Err() != nil && ctx.Err() == nil {
			// our own cancellation, from the watcher's timeout firing.
			return timedOutFlag.Load(), nil
		}
		return timedOutFlag.Load(), err
	}
	return timedOutFlag.Load(), nil
}

func nudgePhrase(lang string) string {
	switch lang {
	case "es":
		return "Te estoy escuchando."
	case "fr":
		return "Je vous écoute."
	default:
		return "I'm listening."
	}
}

// meetsMinimumContent implements §4.8's language-aware minimum-content
// gate: whitespace-token count for space-delimited languages, non-space
// rune count for CJK languages.
func meetsMinimumContent(text string, lang string, cjkLanguages []string, minWords int) bool {
	for _, cjk := range cjkLanguages {
		if cjk == lang {
			count := 0
			for _, r := range text {
				if r != ' ' && r != '\n' && r != '\t' {
					count++
				}
			}
			return count >= minWords
		}
	}
	words := 0
	inWord := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && !inWord {
			words++
			inWord = true
		} else if isSpace {
			inWord = false
		}
	}
	return words >= minWords
}

// loadContextBundle fetches the user's persona/fact context from
// persistence (§4.9), refreshing the fallback file on success and
// falling back to it on failure, per spec.md §6.7.
func loadContextBundle(ctx context.Context, d *Deps, user string) dialog.ContextBundle {
	if d.Store != nil {
		if bundle, err := d.Store.GetUserContextBundle(ctx, user); err == nil && bundle != nil {
			if d.Persona != nil {
				_ = d.Persona.Save(user, persistence.ContextBundle{PersonaSummary: bundle.PersonaSummary, Facts: bundle.Facts})
			}
			return dialog.ContextBundle{PersonaSummary: bundle.PersonaSummary, Facts: bundle.Facts}
		} else if err != nil {
			d.Log.Warn("activity: GetUserContextBundle failed for %s, trying fallback: %v", user, err)
		}
	}
	if d.Persona != nil {
		if bundle, err := d.Persona.Load(user); err == nil && bundle != nil {
			return dialog.ContextBundle{PersonaSummary: bundle.PersonaSummary, Facts: bundle.Facts}
		}
	}
	return dialog.ContextBundle{}
}

// userLanguage resolves the language to operate in: persistence's
// per-user preference, falling back to the process default.
func userLanguage(ctx context.Context, d *Deps, user string) string {
	if d.Store != nil {
		if lang, err := d.Store.GetUserLanguage(ctx, user); err == nil && lang != "" {
			return lang
		}
	}
	return d.Config.Language
}
