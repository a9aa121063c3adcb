package orchestrator

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// controlMessage is an inbound frame (spec.md §6.1):
// start_pipeline/stop_pipeline/get_status.
type controlMessage struct {
	Type string `json:"type"`
}

// statusReply answers a get_status request.
type statusReply struct {
	Active              bool   `json:"active"`
	SttActive           bool   `json:"stt_active"`
	Language            string `json:"language"`
	WakewordInitialized bool   `json:"wakeword_initialized"`
	WakewordRunning     bool   `json:"wakeword_running"`
}

// outboundEvent mirrors a StatusSnapshot transition (spec.md §6.2).
type outboundEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// ControlSocket serves the optional WebSocket control surface
// (spec.md §6.1/§6.2), adapted from the teacher's
// pkg/providers/tts/lokutor.go websocket client onto the server side:
// inbound start_pipeline/stop_pipeline/get_status, outbound status
// transitions pushed as the Orchestrator's StatusBus changes.
type ControlSocket struct {
	orch  *Orchestrator
	log   logging.Logger
	start func(context.Context)
}

// NewControlSocket wires a ControlSocket to orch. start, if non-nil, is
// invoked (in a new goroutine, per connection) when a start_pipeline
// event arrives; it should run Orchestrator.Run.
func NewControlSocket(orch *Orchestrator, start func(context.Context), log logging.Logger) *ControlSocket {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	return &ControlSocket{orch: orch, start: start, log: log}
}

func (c *ControlSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		c.log.Warn("controlsocket: accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	if err := wsjson.Write(ctx, conn, outboundEvent{Type: string(EventConnected)}); err != nil {
		return
	}

	done := make(chan struct{})
	go c.pushStatus(ctx, conn, done)
	defer close(done)

	for {
		var msg controlMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		c.handle(ctx, conn, msg)
	}
}

func (c *ControlSocket) handle(ctx context.Context, conn *websocket.Conn, msg controlMessage) {
	switch msg.Type {
	case "start_pipeline":
		if c.start != nil {
			go c.start(ctx)
		}
	case "stop_pipeline":
		c.orch.Stop()
	case "get_status":
		snap := c.orch.Bus().Snapshot()
		_ = wsjson.Write(ctx, conn, statusReply{
			Active:              snap.Active,
			SttActive:           snap.SttActive,
			Language:            snap.Language,
			WakewordInitialized: snap.WakewordInitialized,
			WakewordRunning:     snap.WakewordRunning,
		})
	default:
		c.log.Warn("controlsocket: unrecognized inbound event %q", msg.Type)
	}
}

// pushStatus polls the bus and forwards every change as an outbound
// event, matching spec.md §4.7's "non-blocking, last-writer-wins
// snapshot consumed by the GUI polling loop" on the server side of the
// socket instead of inside the GUI process.
func (c *ControlSocket) pushStatus(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var last StatusSnapshot
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := c.orch.Bus().Snapshot()
			if snap == last {
				continue
			}
			last = snap
			ev := outboundEvent{Type: string(snap.Event), Text: snap.Text, Message: snap.Message}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}
