package pingate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sketchwink/sketchwink/internal/api"
	"github.com/sketchwink/sketchwink/internal/model"
)

// State is the gate's lifecycle. ReadyToSubmit is instantaneous: entering
// the fourth digit reports ready and the caller submits immediately, so
// the gate never rests between AwaitingInput and Verifying.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateVerifying     State = "verifying"
	StateVerified      State = "verified"
	StateLockedOut     State = "locked_out"
)

const (
	// PINLength is the fixed code length; the buffer is hard-clamped to it.
	PINLength = 4
	// MaxAttempts rejections lock the gate out.
	MaxAttempts = 3
)

var (
	ErrNotReady  = errors.New("pin entry incomplete")
	ErrGateDone  = errors.New("pin gate already finished")
	ErrLockedOut = errors.New("too many incorrect attempts")
)

// Service verifies the PIN by exchanging it, with the profile id, for a
// selection. *directory.Directory satisfies it, so a verified pass lands
// directly in the directory's active pointer.
type Service interface {
	Select(ctx context.Context, id, pin string) (*model.FamilyProfile, error)
	ForgotPIN(ctx context.Context, id string) error
}

// Callbacks report the gate's terminal outcomes. Exactly one of the two
// fires over a gate's lifetime.
type Callbacks struct {
	// OnVerified receives the activated profile after a successful pass.
	OnVerified func(*model.FamilyProfile)
	// OnCancelled fires once when the gate locks out; the selection
	// attempt is abandoned and the prior active profile stays.
	OnCancelled func()
}

// Gate collects a 4-digit code for a PIN-protected profile and exchanges
// it for a verified selection. Input runs on the UI loop while Submit may
// run on a worker, so state is lock-guarded; the verification call itself
// happens outside the lock.
type Gate struct {
	profileID string
	svc       Service
	cb        Callbacks
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	input     string
	attempts  int
	lastError string
	cancelled bool
}

func New(profileID string, svc Service, cb Callbacks, logger *slog.Logger) *Gate {
	return &Gate{
		profileID: profileID,
		svc:       svc,
		cb:        cb,
		logger:    logger,
		state:     StateAwaitingInput,
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// ProfileID returns the profile the gate is protecting.
func (g *Gate) ProfileID() string { return g.profileID }

// Attempts returns the number of rejected submissions so far.
func (g *Gate) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// AttemptsLeft returns how many submissions remain before lockout.
func (g *Gate) AttemptsLeft() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return MaxAttempts - g.attempts
}

// LastError returns the most recent rejection message, server wording
// verbatim.
func (g *Gate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

// Digits returns the current input buffer.
func (g *Gate) Digits() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.input
}

// Masked renders the buffer as fill dots for display.
func (g *Gate) Masked() string {
	g.mu.Lock()
	entered := len(g.input)
	g.mu.Unlock()

	var b strings.Builder
	for i := 0; i < PINLength; i++ {
		if i < entered {
			b.WriteRune('●')
		} else {
			b.WriteRune('○')
		}
	}
	return b.String()
}

// Input appends one digit. Non-digits are ignored, and the buffer never
// grows past PINLength. It returns true when the buffer just became
// complete, which is the caller's cue to Submit.
func (g *Gate) Input(r rune) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAwaitingInput {
		return false
	}
	if r < '0' || r > '9' {
		return false
	}
	if len(g.input) >= PINLength {
		return false
	}
	g.input += string(r)
	return len(g.input) == PINLength
}

// Backspace removes the last digit.
func (g *Gate) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAwaitingInput || len(g.input) == 0 {
		return
	}
	g.input = g.input[:len(g.input)-1]
}

// Submit exchanges the complete buffer for a verified selection. On
// rejection the attempt counter goes up and the input clears; the third
// rejection locks the gate out and fires the cancellation callback
// exactly once.
func (g *Gate) Submit(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateAwaitingInput {
		g.mu.Unlock()
		return ErrGateDone
	}
	if len(g.input) != PINLength {
		g.mu.Unlock()
		return ErrNotReady
	}
	pin := g.input
	g.state = StateVerifying
	g.mu.Unlock()

	profile, err := g.svc.Select(ctx, g.profileID, pin)

	g.mu.Lock()
	g.input = ""
	if err == nil {
		g.state = StateVerified
		g.lastError = ""
		g.mu.Unlock()

		g.logger.Info("pin verified", "profile_id", g.profileID)
		if g.cb.OnVerified != nil {
			g.cb.OnVerified(profile)
		}
		return nil
	}

	g.attempts++
	g.lastError = rejectionMessage(err)
	lockedOut := g.attempts >= MaxAttempts
	fireCancel := false
	if lockedOut {
		g.state = StateLockedOut
		if !g.cancelled {
			g.cancelled = true
			fireCancel = true
		}
	} else {
		g.state = StateAwaitingInput
	}
	attempts := g.attempts
	g.mu.Unlock()

	g.logger.Warn("pin rejected", "profile_id", g.profileID, "attempts", attempts)
	if fireCancel {
		if g.cb.OnCancelled != nil {
			g.cb.OnCancelled()
		}
		return ErrLockedOut
	}
	if lockedOut {
		return ErrLockedOut
	}
	return err
}

// ForgotPIN starts out-of-band recovery. It is reachable at any attempt
// count while input is awaited, and never consumes an attempt.
func (g *Gate) ForgotPIN(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateAwaitingInput {
		g.mu.Unlock()
		return ErrGateDone
	}
	g.mu.Unlock()

	if err := g.svc.ForgotPIN(ctx, g.profileID); err != nil {
		return err
	}

	g.mu.Lock()
	if g.state == StateAwaitingInput {
		g.input = ""
	}
	g.mu.Unlock()

	g.logger.Info("pin recovery requested", "profile_id", g.profileID)
	return nil
}

// rejectionMessage prefers the server's own wording for PIN rejections.
func rejectionMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
