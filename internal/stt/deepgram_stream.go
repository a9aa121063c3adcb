package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/coder/websocket"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// DeepgramStreamingSTT is a genuine incremental streaming client: frames
// are forwarded over a websocket as they arrive and interim/final results
// are delivered to onTranscript as Deepgram emits them, unlike
// BatchAdapter which can only deliver one final transcript per call.
// Connection handling follows the same dial/read/write shape as the
// conversational predecessor's Lokutor TTS client.
type DeepgramStreamingSTT struct {
	apiKey string
	host   string
	log    logging.Logger
}

func NewDeepgramStreamingSTT(apiKey string, log logging.Logger) *DeepgramStreamingSTT {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	return &DeepgramStreamingSTT{apiKey: apiKey, host: "api.deepgram.com", log: log}
}

func (s *DeepgramStreamingSTT) Name() string { return "deepgram-stt-stream" }

type deepgramResult struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (s *DeepgramStreamingSTT) StreamRecognize(ctx context.Context, frames <-chan []int16, sampleRate int, onTranscript OnTranscript, interimResults, singleUtterance bool) error {
	u := url.URL{Scheme: "wss", Host: s.host, Path: "/v1/listen"}
	q := u.Query()
	q.Set("model", "nova-2")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	q.Set("interim_results", fmt.Sprintf("%t", interimResults))
	if singleUtterance {
		q.Set("utterance_end_ms", "1000")
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: map[string][]string{"Authorization": {"Token " + s.apiKey}},
	})
	if err != nil {
		return errkind.WithKind(fmt.Errorf("deepgram dial: %w", err), errkind.VendorTransient)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	readErrs := make(chan error, 1)
	go func() {
		readErrs <- s.readLoop(ctx, conn, onTranscript)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErrs:
			return err
		case frame, ok := <-frames:
			if !ok {
				if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
					return errkind.WithKind(err, errkind.VendorTransient)
				}
				return <-readErrs
			}
			pcm := samplesToPCM(frame)
			if err := conn.Write(ctx, websocket.MessageBinary, pcm); err != nil {
				return errkind.WithKind(err, errkind.VendorTransient)
			}
		}
	}
}

func (s *DeepgramStreamingSTT) readLoop(ctx context.Context, conn *websocket.Conn, onTranscript OnTranscript) error {
	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errkind.WithKind(fmt.Errorf("deepgram read: %w", err), errkind.VendorTransient)
		}

		var result deepgramResult
		if err := json.Unmarshal(payload, &result); err != nil {
			s.log.Warn("deepgram stt: malformed frame: %v", err)
			continue
		}
		if len(result.Channel.Alternatives) == 0 {
			continue
		}
		alt := result.Channel.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		if err := onTranscript(Transcript{
			Text:       alt.Transcript,
			IsFinal:    result.IsFinal,
			Confidence: alt.Confidence,
		}); err != nil {
			if errkind.IsTermination(err) {
				return err
			}
			s.log.Warn("deepgram stt: onTranscript callback error: %v", err)
			continue
		}
	}
}
