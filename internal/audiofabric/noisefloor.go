package audiofabric

// NoiseFloorWatcher feeds captured frames through an RMSVAD and invokes
// onActivity whenever speech start is confirmed, so the shared silence
// watcher can treat a PCM burst above the noise floor the same as a
// non-empty transcript (spec §4.6 "or every time a PCM burst above a
// configured noise floor is observed").
type NoiseFloorWatcher struct {
	vad        *RMSVAD
	onActivity func()
}

// NewNoiseFloorWatcher builds a watcher around vad, calling onActivity
// on every confirmed speech-start edge.
func NewNoiseFloorWatcher(vad *RMSVAD, onActivity func()) *NoiseFloorWatcher {
	return &NoiseFloorWatcher{vad: vad, onActivity: onActivity}
}

// Feed processes one captured frame. Call it from the activity's
// capture-read loop alongside the STT frame forwarding.
func (n *NoiseFloorWatcher) Feed(samples []int16) {
	if n.vad == nil {
		return
	}
	if ev := n.vad.Process(samples); ev != nil && ev.Type == VADSpeechStart {
		if n.onActivity != nil {
			n.onActivity()
		}
	}
}
