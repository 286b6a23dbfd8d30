package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sketchwink/sketchwink/internal/directory"
	"github.com/sketchwink/sketchwink/internal/model"
	"github.com/sketchwink/sketchwink/internal/pingate"
	"github.com/sketchwink/sketchwink/internal/switcher"
)

// appState is which screen the app is on.
type appState int

const (
	stateLoading     appState = iota // first load in flight
	stateProfiles                    // profile picker
	statePINEntry                    // PIN gate for a protected profile
	stateProfileForm                 // create or edit form
)

// lockoutCloseDelay is how long the blocking lockout error stays on
// screen before the gate force-closes.
const lockoutCloseDelay = 2 * time.Second

// ProfilesChangedMsg is sent from outside the UI loop (the realtime
// listener) when another device changed the profile list.
type ProfilesChangedMsg struct{}

type profilesLoadedMsg struct{ err error }

type tapOutcomeMsg struct {
	outcome switcher.Outcome
	tapped  model.FamilyProfile
	err     error
}

type pinResultMsg struct {
	state pingate.State
	err   error
}

type gateTimeoutMsg struct{}

type formSavedMsg struct {
	action string // "saved" or "deleted"
	err    error
}

type recoveryMsg struct{ err error }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F29BC4"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(1, 2)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// profileItem implements list.Item for the picker.
type profileItem struct {
	profile model.FamilyProfile
	active  bool
}

func (i profileItem) Title() string {
	title := fmt.Sprintf("%s %s", i.profile.DisplayAvatar(), i.profile.Name)
	if i.active {
		title += " ✓"
	}
	if i.profile.HasPIN {
		title += " 🔒"
	}
	return title
}

func (i profileItem) Description() string {
	var parts []string
	if i.profile.IsDefault {
		parts = append(parts, "main profile")
	}
	if i.profile.CanMakePurchases {
		parts = append(parts, "purchases")
	}
	if i.profile.CanUseCustomContentTypes {
		parts = append(parts, "custom content")
	}
	if i.profile.Character != nil {
		parts = append(parts, i.profile.Character.Summary())
	}
	if len(parts) == 0 {
		return "standard profile"
	}
	return strings.Join(parts, " · ")
}

func (i profileItem) FilterValue() string { return i.profile.Name }

// App is the bubbletea model holding all UI state.
type App struct {
	dir    *directory.Directory
	sw     *switcher.Switcher
	logger *slog.Logger

	state       appState
	profileList list.Model
	gate        *pingate.Gate
	gateProfile model.FamilyProfile
	form        *profileForm
	statusMsg   string
	errMsg      string

	width  int
	height int
}

func NewApp(dir *directory.Directory, sw *switcher.Switcher, logger *slog.Logger) *App {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Who's sketching today?"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return &App{
		dir:         dir,
		sw:          sw,
		logger:      logger,
		state:       stateLoading,
		profileList: l,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadProfiles()
}

func (a *App) loadProfiles() tea.Cmd {
	return func() tea.Msg {
		return profilesLoadedMsg{err: a.dir.Load(context.Background())}
	}
}

func (a *App) reloadProfiles() tea.Cmd {
	return func() tea.Msg {
		return profilesLoadedMsg{err: a.dir.Reload(context.Background())}
	}
}

func (a *App) tapProfile(p model.FamilyProfile) tea.Cmd {
	return func() tea.Msg {
		out, err := a.sw.Tap(context.Background(), p)
		return tapOutcomeMsg{outcome: out, tapped: p, err: err}
	}
}

func (a *App) submitPIN() tea.Cmd {
	gate := a.gate
	return func() tea.Msg {
		err := gate.Submit(context.Background())
		return pinResultMsg{state: gate.State(), err: err}
	}
}

func (a *App) requestRecovery() tea.Cmd {
	gate := a.gate
	return func() tea.Msg {
		return recoveryMsg{err: gate.ForgotPIN(context.Background())}
	}
}

func (a *App) refreshProfileList() {
	activeID := a.dir.ActiveID()
	profiles := a.dir.Profiles()
	items := make([]list.Item, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, profileItem{profile: p, active: p.ID == activeID})
	}
	a.profileList.SetItems(items)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.profileList.SetSize(max(0, msg.Width-4), max(0, msg.Height-8))
		return a, nil

	case ProfilesChangedMsg:
		return a, a.reloadProfiles()

	case profilesLoadedMsg:
		if msg.err != nil {
			a.errMsg = msg.err.Error()
			if a.state == stateLoading {
				a.state = stateProfiles
			}
			return a, nil
		}
		a.errMsg = ""
		a.refreshProfileList()
		if a.state == stateLoading {
			a.state = stateProfiles
		}
		return a, nil

	case tapOutcomeMsg:
		return a.handleTapOutcome(msg)

	case pinResultMsg:
		return a.handlePINResult(msg)

	case gateTimeoutMsg:
		if a.state == statePINEntry {
			a.closeGate("Selection cancelled")
		}
		return a, nil

	case recoveryMsg:
		if msg.err != nil {
			a.errMsg = msg.err.Error()
		} else {
			a.statusMsg = "Recovery email sent — check the account inbox"
		}
		return a, nil

	case formSavedMsg:
		if msg.err != nil {
			if a.form != nil {
				a.form.errMsg = displayError(msg.err)
			}
			return a, nil
		}
		a.form = nil
		a.state = stateProfiles
		a.statusMsg = "Profile " + msg.action
		a.refreshProfileList()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a.delegate(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state {
	case stateProfiles:
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "n":
			a.form = newCreateForm()
			a.state = stateProfileForm
			a.errMsg = ""
			return a, nil
		case "r":
			a.statusMsg = "Refreshing..."
			return a, a.reloadProfiles()
		case "enter":
			item, ok := a.profileList.SelectedItem().(profileItem)
			if !ok {
				return a, nil
			}
			a.errMsg = ""
			return a, a.tapProfile(item.profile)
		}

	case statePINEntry:
		return a.handlePINKey(msg)

	case stateProfileForm:
		return a.handleFormKey(msg)
	}

	return a.delegate(msg)
}

func (a *App) handlePINKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.gate == nil {
		a.state = stateProfiles
		return a, nil
	}

	switch msg.String() {
	case "esc":
		if a.gate.State() == pingate.StateAwaitingInput {
			a.closeGate("Selection cancelled")
		}
		return a, nil
	case "backspace":
		a.gate.Backspace()
		return a, nil
	case "f":
		return a, a.requestRecovery()
	}

	if len(msg.Runes) == 1 {
		if a.gate.Input(msg.Runes[0]) {
			// Fourth digit entered: verification starts immediately.
			a.statusMsg = "Checking PIN..."
			return a, a.submitPIN()
		}
	}
	return a, nil
}

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.form == nil {
		a.state = stateProfiles
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.form = nil
		a.state = stateProfiles
		a.statusMsg = ""
		return a, nil
	case "ctrl+s":
		return a, a.saveForm()
	case "ctrl+d":
		if a.form.mode == formEdit && !a.form.isDefault {
			if a.form.confirmDelete {
				return a, a.deleteProfile(a.form.profileID)
			}
			a.form.confirmDelete = true
			a.form.errMsg = "Press ctrl+d again to delete this profile"
			return a, nil
		}
		if a.form.isDefault {
			a.form.errMsg = displayError(directory.ErrDefaultProfile)
		}
		return a, nil
	case "enter":
		if a.form.onSubmitRow() {
			return a, a.saveForm()
		}
		a.form.nextField()
		return a, nil
	}

	a.form.Update(msg)
	return a, nil
}

func (a *App) handleTapOutcome(msg tapOutcomeMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.errMsg = displayError(msg.err)
		return a, nil
	}

	switch msg.outcome.Action {
	case switcher.ActionOpenSettings:
		a.form = newEditForm(msg.tapped)
		a.state = stateProfileForm
		return a, nil

	case switcher.ActionPINRequired:
		a.gateProfile = msg.tapped
		a.gate = pingate.New(msg.tapped.ID, a.dir, pingate.Callbacks{
			OnVerified: func(p *model.FamilyProfile) {
				a.logger.Info("pin gate verified", "profile_id", p.ID)
			},
			OnCancelled: func() {
				a.logger.Info("pin gate cancelled", "profile_id", msg.tapped.ID)
			},
		}, a.logger.With("component", "pingate"))
		a.state = statePINEntry
		a.statusMsg = ""
		return a, nil

	case switcher.ActionSelected:
		a.statusMsg = fmt.Sprintf("Now sketching as %s", msg.outcome.Profile.Name)
		a.refreshProfileList()
		return a, nil
	}
	return a, nil
}

func (a *App) handlePINResult(msg pinResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.state == pingate.StateVerified:
		name := a.gateProfile.Name
		a.gate = nil
		a.state = stateProfiles
		a.statusMsg = fmt.Sprintf("Now sketching as %s", name)
		a.refreshProfileList()
		return a, nil

	case errors.Is(msg.err, pingate.ErrLockedOut) || msg.state == pingate.StateLockedOut:
		a.statusMsg = ""
		return a, tea.Tick(lockoutCloseDelay, func(time.Time) tea.Msg {
			return gateTimeoutMsg{}
		})

	default:
		// Rejected: the gate cleared its input and counts the attempt;
		// the view reads the server's message off the gate.
		a.statusMsg = ""
		return a, nil
	}
}

func (a *App) closeGate(status string) {
	a.gate = nil
	a.state = stateProfiles
	a.statusMsg = status
	a.refreshProfileList()
}

func (a *App) saveForm() tea.Cmd {
	form := a.form
	if err := form.validate(); err != nil {
		form.errMsg = err.Error()
		return nil
	}
	return func() tea.Msg {
		var err error
		if form.mode == formCreate {
			_, err = a.dir.Create(context.Background(), form.createRequest())
		} else {
			_, err = a.dir.Update(context.Background(), form.profileID, form.updateRequest())
		}
		return formSavedMsg{action: "saved", err: err}
	}
}

func (a *App) deleteProfile(id string) tea.Cmd {
	return func() tea.Msg {
		return formSavedMsg{action: "deleted", err: a.dir.Delete(context.Background(), id)}
	}
}

func (a *App) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateProfiles || a.state == stateLoading {
		var cmd tea.Cmd
		a.profileList, cmd = a.profileList.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) View() string {
	var content string
	switch a.state {
	case stateLoading:
		content = "Loading profiles..."
	case stateProfiles:
		content = a.viewProfiles()
	case statePINEntry:
		content = a.viewPINEntry()
	case stateProfileForm:
		content = a.form.View()
	}

	sections := []string{titleStyle.Render("✦ SketchWink"), content}
	if a.errMsg != "" {
		sections = append(sections, errorStyle.Render(a.errMsg))
	}
	if a.statusMsg != "" {
		sections = append(sections, statusStyle.Render(a.statusMsg))
	}
	return strings.Join(sections, "\n")
}

func (a *App) viewProfiles() string {
	header := ""
	if perms := a.dir.Permissions(); perms != nil {
		header = hintStyle.Render(fmt.Sprintf(
			"%s plan · %d/%d profiles",
			perms.PlanName, len(a.dir.Profiles()), perms.MaxFamilyProfiles,
		))
	}
	hints := hintStyle.Render("enter → switch/edit    n → new profile    r → refresh    q → quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, a.profileList.View(), hints)
}

func (a *App) viewPINEntry() string {
	if a.gate == nil {
		return ""
	}

	lines := []string{
		fmt.Sprintf("Enter PIN for %s %s", a.gateProfile.DisplayAvatar(), a.gateProfile.Name),
		"",
		"    " + a.gate.Masked(),
	}

	switch a.gate.State() {
	case pingate.StateLockedOut:
		lines = append(lines, "", errorStyle.Render("Too many incorrect attempts. Closing..."))
	case pingate.StateVerifying:
		lines = append(lines, "", "Checking...")
	default:
		if lastErr := a.gate.LastError(); lastErr != "" {
			left := a.gate.AttemptsLeft()
			lines = append(lines, "", errorStyle.Render(
				fmt.Sprintf("%s (%d attempt(s) left)", lastErr, left),
			))
		}
		lines = append(lines, "", hintStyle.Render("f → forgot PIN    esc → cancel"))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// displayError keeps client-side validation wording as-is and passes
// server messages through verbatim.
func displayError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
