package activity

// AudioIntentInference is the decoded result of an audio-intent model,
// distinct from STT: it only ever reports one of a small fixed set of
// intents (meditation only recognizes "termination").
type AudioIntentInference struct {
	Intent     string
	Confidence float64
}

// AudioIntentRecognizer is the §6.3 "audio-intent" vendor capability:
// fed raw PCM frame by frame, it reports when enough audio has
// accumulated to run inference, and the inference itself.
type AudioIntentRecognizer interface {
	ProcessFrame(pcm []int16) (ready bool)
	GetInference() (*AudioIntentInference, bool)
	Reset()
	Delete()
}
