package switcher

import (
	"context"
	"log/slog"

	"github.com/sketchwink/sketchwink/internal/model"
)

// Action is the single branch taken for a profile tap.
type Action string

const (
	// ActionOpenSettings: the tapped profile is already active; open its
	// edit surface. No network call.
	ActionOpenSettings Action = "open_settings"
	// ActionPINRequired: the tapped profile is PIN-protected; the caller
	// presents a PIN gate. The active profile is not changed yet.
	ActionPINRequired Action = "pin_required"
	// ActionSelected: the profile was activated directly.
	ActionSelected Action = "selected"
)

// Outcome reports which branch ran and, for ActionSelected, the
// activated profile.
type Outcome struct {
	Action  Action
	Profile *model.FamilyProfile
}

// Selector is the slice of the directory the switcher needs.
type Selector interface {
	ActiveID() string
	Select(ctx context.Context, id, pin string) (*model.FamilyProfile, error)
}

// Switcher decides, per tap on a profile entry, which of three actions
// to take. Exactly one branch runs per tap.
type Switcher struct {
	sel    Selector
	logger *slog.Logger
}

func New(sel Selector, logger *slog.Logger) *Switcher {
	return &Switcher{sel: sel, logger: logger}
}

// Tap applies the ordered decision rule:
//  1. tapped profile is the active one → open its settings surface
//  2. tapped profile requires a PIN → hand off to the PIN gate
//  3. otherwise → select directly, with no PIN
//
// Selection failures surface as the error with the prior active profile
// untouched; there is no optimistic update anywhere in this path.
func (s *Switcher) Tap(ctx context.Context, tapped model.FamilyProfile) (Outcome, error) {
	if tapped.ID == s.sel.ActiveID() {
		s.logger.Debug("tap on active profile", "profile_id", tapped.ID)
		return Outcome{Action: ActionOpenSettings}, nil
	}

	if tapped.HasPIN {
		s.logger.Debug("tap requires pin", "profile_id", tapped.ID)
		return Outcome{Action: ActionPINRequired}, nil
	}

	profile, err := s.sel.Select(ctx, tapped.ID, "")
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: ActionSelected, Profile: profile}, nil
}
