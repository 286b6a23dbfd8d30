package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

const defaultReconnectDelay = 5 * time.Second

// Event is a change notification pushed by the SketchWink service when
// another device mutates account state.
type Event struct {
	Type      string `json:"type"`
	Entity    string `json:"entity"`
	Action    string `json:"action"`
	ProfileID string `json:"profileId,omitempty"`
}

// Config holds the event stream connection settings.
type Config struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
}

// Listener maintains a WebSocket subscription to the service's event
// stream and hands profile events to the callback. Connection loss is
// transport plumbing, not a request: the listener redials after a fixed
// delay until stopped.
type Listener struct {
	cfg     Config
	onEvent func(Event)
	logger  *slog.Logger
	stopCh  chan struct{}
	stopped chan struct{}
}

func NewListener(cfg Config, onEvent func(Event), logger *slog.Logger) *Listener {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Listener{
		cfg:     cfg,
		onEvent: onEvent,
		logger:  logger,
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start runs the listen loop in a goroutine until Stop or ctx cancel.
func (l *Listener) Start(ctx context.Context) {
	go func() {
		defer close(l.stopped)
		for {
			if err := l.listenOnce(ctx); err != nil {
				l.logger.Warn("event stream disconnected", "error", err)
			}

			select {
			case <-time.After(l.cfg.ReconnectDelay):
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop closes the listener and waits for the loop to exit.
func (l *Listener) Stop() {
	close(l.stopCh)
	<-l.stopped
}

func (l *Listener) listenOnce(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	opts := &ws.DialOptions{}
	if l.cfg.Token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + l.cfg.Token}}
	}
	conn, _, err := ws.Dial(dialCtx, l.cfg.URL, opts)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	l.logger.Info("event stream connected")

	// Close the connection when Stop is called so Read unblocks.
	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()
	go func() {
		select {
		case <-l.stopCh:
			cancelRead()
		case <-readCtx.Done():
		}
	}()

	for {
		_, data, err := conn.Read(readCtx)
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			l.logger.Warn("bad event payload", "error", err)
			continue
		}
		if l.onEvent != nil {
			l.onEvent(ev)
		}
	}
}
