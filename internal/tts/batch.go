package tts

import "context"

// Synthesize collects a StreamingProvider's chunks into one buffer, for
// callers that want a complete utterance rather than incremental chunks
// (e.g. pre-rendering a fixed prompt). Grounded on the conversational
// predecessor's LokutorTTS.Synthesize helper.
func Synthesize(ctx context.Context, p StreamingProvider, text, voice, lang string) ([]byte, error) {
	var audio []byte
	err := p.StreamSynthesize(ctx, text, voice, lang, func(chunk []byte) error {
		audio = append(audio, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
