package audiofabric

import (
	"math"
	"time"
)

// VADEventType classifies a RMSVAD.Process result.
type VADEventType int

const (
	VADNone VADEventType = iota
	VADSpeechStart
	VADSpeechEnd
	VADSilence
)

// VADEvent is emitted by RMSVAD.Process.
type VADEvent struct {
	Type      VADEventType
	Timestamp time.Time
}

// RMSVAD is a lightweight root-mean-square voice activity detector,
// adapted from the conversational predecessor's VAD (kept as the noise
// floor detector the silence watcher uses to treat a PCM burst as
// activity, spec §4.6). Hysteresis via minConfirmed avoids triggering on
// single-frame spikes or echo onset.
type RMSVAD struct {
	threshold    float64
	silenceLimit time.Duration
	isSpeaking   bool
	silenceStart time.Time

	consecutiveFrames int
	minConfirmed      int
	lastRMS           float64
}

// NewRMSVAD creates a RMSVAD with the given RMS threshold (0..1, sample
// amplitude normalized) and the duration of sub-threshold audio needed
// to declare speech ended.
func NewRMSVAD(threshold float64, silenceLimit time.Duration) *RMSVAD {
	return &RMSVAD{
		threshold:    threshold,
		silenceLimit: silenceLimit,
		minConfirmed: 7,
	}
}

// SetMinConfirmed sets how many consecutive above-threshold frames are
// needed to confirm speech start.
func (v *RMSVAD) SetMinConfirmed(count int) { v.minConfirmed = count }

// SetThreshold updates the RMS threshold.
func (v *RMSVAD) SetThreshold(threshold float64) { v.threshold = threshold }

// Threshold returns the current RMS threshold.
func (v *RMSVAD) Threshold() float64 { return v.threshold }

// LastRMS returns the RMS of the last processed frame.
func (v *RMSVAD) LastRMS() float64 { return v.lastRMS }

// IsSpeaking reports whether speech is currently confirmed.
func (v *RMSVAD) IsSpeaking() bool { return v.isSpeaking }

// Process feeds one frame of samples through the detector.
func (v *RMSVAD) Process(samples []int16) *VADEvent {
	rms := calculateRMS(samples)
	v.lastRMS = rms
	now := time.Now()

	if rms > v.threshold {
		v.consecutiveFrames++
		if !v.isSpeaking {
			if v.consecutiveFrames >= v.minConfirmed {
				v.isSpeaking = true
				return &VADEvent{Type: VADSpeechStart, Timestamp: now}
			}
			return nil
		}
		v.silenceStart = time.Time{}
		return nil
	}

	v.consecutiveFrames = 0

	if v.isSpeaking {
		if v.silenceStart.IsZero() {
			v.silenceStart = now
		}
		if now.Sub(v.silenceStart) >= v.silenceLimit {
			v.isSpeaking = false
			v.silenceStart = time.Time{}
			return &VADEvent{Type: VADSpeechEnd, Timestamp: now}
		}
	}

	return &VADEvent{Type: VADSilence, Timestamp: now}
}

// Reset clears all running state.
func (v *RMSVAD) Reset() {
	v.isSpeaking = false
	v.silenceStart = time.Time{}
	v.consecutiveFrames = 0
}

func calculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
