package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sketchwink/sketchwink/internal/model"
)

// Client-side validation rejections. These never reach the network.
var (
	ErrProfileLimit   = errors.New("profile limit reached for this plan")
	ErrDefaultProfile = errors.New("the main profile cannot be deleted")
	ErrAdminOnly      = errors.New("only the main profile can change permissions")
	ErrNotLoaded      = errors.New("profiles have not been loaded yet")
	ErrUnknownProfile = errors.New("profile not found")
)

// Service is the remote profile API surface the directory depends on.
// *api.Client satisfies it.
type Service interface {
	ListProfiles(ctx context.Context) ([]model.FamilyProfile, error)
	GetPermissions(ctx context.Context) (*model.AccountPermissions, error)
	CreateProfile(ctx context.Context, req model.CreateProfileRequest) (*model.FamilyProfile, error)
	UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.FamilyProfile, error)
	DeleteProfile(ctx context.Context, id string) error
	SelectProfile(ctx context.Context, id, pin string) (*model.FamilyProfile, error)
	ForgotPIN(ctx context.Context, id string) error
}

// StateStore persists the active profile selection across restarts.
// *state.Store satisfies it.
type StateStore interface {
	ActiveProfileID() (string, error)
	SetActiveProfileID(id string) error
	ClearActiveProfileID() error
}

// Directory holds the canonical in-memory profile list and the active
// profile pointer. After any successful mutation it refetches the full
// list from the server rather than trusting the mutation response, so
// server-computed fields never drift.
type Directory struct {
	mu       sync.RWMutex
	svc      Service
	state    StateStore
	logger   *slog.Logger
	onChange func()

	profiles []model.FamilyProfile
	perms    *model.AccountPermissions
	activeID string
	loaded   bool
}

func New(svc Service, state StateStore, logger *slog.Logger) *Directory {
	return &Directory{svc: svc, state: state, logger: logger}
}

// SetOnChange registers a callback invoked after every state change.
// Must be called before the directory is shared between goroutines.
func (d *Directory) SetOnChange(fn func()) {
	d.onChange = fn
}

func (d *Directory) notify() {
	if d.onChange != nil {
		d.onChange()
	}
}

// Load fetches the profile list and the account permissions in parallel.
// Both calls must succeed; on any failure the directory is left untouched.
// On first success the persisted active selection is restored if that
// profile still exists.
func (d *Directory) Load(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		profiles []model.FamilyProfile
		perms    *model.AccountPermissions
		listErr  error
		permsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		profiles, listErr = d.svc.ListProfiles(ctx)
	}()
	go func() {
		defer wg.Done()
		perms, permsErr = d.svc.GetPermissions(ctx)
	}()
	wg.Wait()

	if listErr != nil {
		return fmt.Errorf("load profiles: %w", listErr)
	}
	if permsErr != nil {
		return fmt.Errorf("load permissions: %w", permsErr)
	}

	d.mu.Lock()
	d.profiles = profiles
	d.perms = perms
	d.loaded = true
	if d.activeID == "" {
		d.restoreActiveLocked()
	} else if d.findLocked(d.activeID) == nil {
		// Active profile was deleted remotely.
		d.activeID = ""
		d.state.ClearActiveProfileID()
	}
	d.mu.Unlock()

	d.notify()
	return nil
}

// restoreActiveLocked re-applies the persisted selection, dropping it if
// the profile no longer exists server-side.
func (d *Directory) restoreActiveLocked() {
	id, err := d.state.ActiveProfileID()
	if err != nil {
		d.logger.Warn("restore active profile", "error", err)
		return
	}
	if id == "" {
		return
	}
	if d.findLocked(id) == nil {
		d.logger.Info("persisted active profile no longer exists", "profile_id", id)
		d.state.ClearActiveProfileID()
		return
	}
	d.activeID = id
}

// Reload refetches the profile list. Permissions change rarely and only
// with plan changes, so they are kept as loaded.
func (d *Directory) Reload(ctx context.Context) error {
	profiles, err := d.svc.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("reload profiles: %w", err)
	}

	d.mu.Lock()
	d.profiles = profiles
	d.loaded = true
	if d.activeID != "" && d.findLocked(d.activeID) == nil {
		d.activeID = ""
		d.state.ClearActiveProfileID()
	}
	d.mu.Unlock()

	d.notify()
	return nil
}

// Profiles returns a copy of the current profile list.
func (d *Directory) Profiles() []model.FamilyProfile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.FamilyProfile, len(d.profiles))
	copy(out, d.profiles)
	return out
}

// Permissions returns the account limits, or nil before Load succeeds.
func (d *Directory) Permissions() *model.AccountPermissions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.perms == nil {
		return nil
	}
	p := *d.perms
	return &p
}

// ActiveID returns the active profile id, or "" when none is selected.
func (d *Directory) ActiveID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.activeID
}

// Active returns the active profile, or nil when none is selected.
func (d *Directory) Active() *model.FamilyProfile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.findLocked(d.activeID)
}

// Find returns the profile with the given id, or nil.
func (d *Directory) Find(id string) *model.FamilyProfile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.findLocked(id)
}

func (d *Directory) findLocked(id string) *model.FamilyProfile {
	if id == "" {
		return nil
	}
	for i := range d.profiles {
		if d.profiles[i].ID == id {
			p := d.profiles[i]
			return &p
		}
	}
	return nil
}

// Create adds a profile, enforcing the plan's profile cap before any
// network call. The first profile of an account is always created with
// purchase capability: it becomes the admin/default profile.
func (d *Directory) Create(ctx context.Context, req model.CreateProfileRequest) (*model.FamilyProfile, error) {
	d.mu.RLock()
	if !d.loaded || d.perms == nil {
		d.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	if len(d.profiles) >= d.perms.MaxFamilyProfiles {
		d.mu.RUnlock()
		return nil, ErrProfileLimit
	}
	if len(d.profiles) == 0 {
		req.CanMakePurchases = true
	}
	d.mu.RUnlock()

	created, err := d.svc.CreateProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := d.Reload(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Update applies a partial update. Capability-flag changes are allowed
// only while the default (admin) profile is active; everything else is
// open to the profile itself.
func (d *Directory) Update(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.FamilyProfile, error) {
	d.mu.RLock()
	if !d.loaded {
		d.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	if d.findLocked(id) == nil {
		d.mu.RUnlock()
		return nil, ErrUnknownProfile
	}
	if req.TouchesCapabilities() {
		active := d.findLocked(d.activeID)
		if active == nil || !active.IsDefault {
			d.mu.RUnlock()
			return nil, ErrAdminOnly
		}
	}
	d.mu.RUnlock()

	updated, err := d.svc.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := d.Reload(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes a profile. Deleting the default profile is rejected
// before any network call. The local entry goes away only after the
// server confirms, followed by a full refetch.
func (d *Directory) Delete(ctx context.Context, id string) error {
	d.mu.RLock()
	p := d.findLocked(id)
	d.mu.RUnlock()
	if p == nil {
		return ErrUnknownProfile
	}
	if p.IsDefault {
		return ErrDefaultProfile
	}

	if err := d.svc.DeleteProfile(ctx, id); err != nil {
		return err
	}
	return d.Reload(ctx)
}

// Select activates a profile through the remote service. There is no
// optimistic update: on failure the previous active profile stays put.
// On success the selection is persisted for the next launch.
func (d *Directory) Select(ctx context.Context, id, pin string) (*model.FamilyProfile, error) {
	selected, err := d.svc.SelectProfile(ctx, id, pin)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.activeID = selected.ID
	d.mu.Unlock()

	if err := d.state.SetActiveProfileID(selected.ID); err != nil {
		d.logger.Warn("persist active profile", "profile_id", selected.ID, "error", err)
	}
	d.logger.Info("profile selected", "profile_id", selected.ID, "name", selected.Name)
	d.notify()
	return selected, nil
}

// ForgotPIN asks the service to start out-of-band PIN recovery.
func (d *Directory) ForgotPIN(ctx context.Context, id string) error {
	return d.svc.ForgotPIN(ctx, id)
}
