package intervention

import (
	"context"
	"sync"
	"time"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/logging"
)

// Option configures a Poller.
type Option func(*Poller)

// WithTickInterval overrides the poll interval (default 15 minutes,
// per spec §6.6's poll_interval_minutes).
func WithTickInterval(d time.Duration) Option {
	return func(p *Poller) { p.tickInterval = d }
}

// TimeOfDayFunc returns the current time-of-day bucket (e.g. "morning",
// "evening") for the suggest request's context_time_of_day field.
type TimeOfDayFunc func() string

// OnTrigger is invoked whenever a poll response has
// trigger_intervention=true, so the orchestrator can act on it (spec
// §6.5's closing sentence).
type OnTrigger func(resp *SuggestResponse)

// Poller runs the periodic intervention-suggestion poll task, grounded
// in _examples/hammamikhairi-otto/internal/timer/supervisor.go's
// ticker-driven supervisor loop.
type Poller struct {
	client       *Client
	records      *RecordStore
	userID       string
	timeOfDay    TimeOfDayFunc
	onTrigger    OnTrigger
	log          logging.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func New(client *Client, records *RecordStore, userID string, timeOfDay TimeOfDayFunc, onTrigger OnTrigger, log logging.Logger, opts ...Option) *Poller {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	p := &Poller{
		client:       client,
		records:      records,
		userID:       userID,
		timeOfDay:    timeOfDay,
		onTrigger:    onTrigger,
		log:          log,
		tickInterval: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the background poll loop. Non-blocking.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.log.Warn("intervention poller already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	go p.loop(childCtx)
	p.log.Info("intervention poller started (interval=%s)", p.tickInterval)
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.cancel()
	p.running = false
	p.log.Info("intervention poller stopped")
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	tod := ""
	if p.timeOfDay != nil {
		tod = p.timeOfDay()
	}

	requestTime := time.Now()
	resp, err := p.client.Suggest(ctx, p.userID, tod)
	if err != nil {
		p.log.Error("intervention poll failed: %v", err)
		return
	}
	responseTime := time.Now()

	rec := &Record{
		LatestDecision:   &resp.Decision,
		LatestSuggestion: &resp.Suggestion,
		LastRequestTime:  &requestTime,
		LastResponseTime: &responseTime,
	}
	if err := p.records.Save(rec); err != nil {
		p.log.Error("intervention record save failed: %v", err)
	}

	if resp.Decision.TriggerIntervention && p.onTrigger != nil {
		p.onTrigger(resp)
	}
}
