package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sketchwink/sketchwink/internal/model"
	"github.com/sketchwink/sketchwink/internal/pingate"
)

type formMode int

const (
	formCreate formMode = iota
	formEdit
)

// Form rows in focus order.
const (
	fieldName = iota
	fieldAvatar
	fieldPIN
	fieldConfirmPIN
	fieldPurchases
	fieldCustomContent
	fieldSubmit
	fieldCount
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F29BC4")).Bold(true)
	labelStyle   = hintStyle
)

// profileForm is the create/edit surface. Editing is only reachable for
// the active profile, so capability toggles take effect only when that
// profile is the account's default one; the directory enforces this.
type profileForm struct {
	mode      formMode
	profileID string
	isDefault bool
	hasPIN    bool

	name       textinput.Model
	avatar     textinput.Model
	pin        textinput.Model
	confirmPIN textinput.Model

	canMakePurchases         bool
	canUseCustomContentTypes bool
	removePIN                bool

	// Pre-edit values, for building the partial update.
	origName      string
	origAvatar    string
	origPurchases bool
	origCustom    bool

	focus         int
	confirmDelete bool
	errMsg        string
}

func newCreateForm() *profileForm {
	f := &profileForm{mode: formCreate}
	f.initInputs()
	f.name.Focus()
	return f
}

func newEditForm(p model.FamilyProfile) *profileForm {
	f := &profileForm{
		mode:                     formEdit,
		profileID:                p.ID,
		isDefault:                p.IsDefault,
		hasPIN:                   p.HasPIN,
		canMakePurchases:         p.CanMakePurchases,
		canUseCustomContentTypes: p.CanUseCustomContentTypes,
		origName:                 p.Name,
		origAvatar:               p.Avatar,
		origPurchases:            p.CanMakePurchases,
		origCustom:               p.CanUseCustomContentTypes,
	}
	f.initInputs()
	f.name.SetValue(p.Name)
	f.avatar.SetValue(p.Avatar)
	f.name.Focus()
	return f
}

func (f *profileForm) initInputs() {
	f.name = textinput.New()
	f.name.Placeholder = "Profile name"
	f.name.CharLimit = 50

	f.avatar = textinput.New()
	f.avatar.Placeholder = "Avatar emoji"
	f.avatar.CharLimit = 8

	f.pin = textinput.New()
	f.pin.Placeholder = strings.Repeat("0", pingate.PINLength)
	f.pin.CharLimit = pingate.PINLength
	f.pin.EchoMode = textinput.EchoPassword

	f.confirmPIN = textinput.New()
	f.confirmPIN.Placeholder = "Confirm PIN"
	f.confirmPIN.CharLimit = pingate.PINLength
	f.confirmPIN.EchoMode = textinput.EchoPassword
}

func (f *profileForm) onSubmitRow() bool { return f.focus == fieldSubmit }

func (f *profileForm) nextField() {
	f.setFocus((f.focus + 1) % fieldCount)
}

func (f *profileForm) prevField() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f *profileForm) setFocus(idx int) {
	f.focus = idx
	for i, in := range []*textinput.Model{&f.name, &f.avatar, &f.pin, &f.confirmPIN} {
		if i == idx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (f *profileForm) Update(msg tea.KeyMsg) {
	f.errMsg = ""
	f.confirmDelete = false

	switch msg.String() {
	case "tab", "down":
		f.nextField()
		return
	case "shift+tab", "up":
		f.prevField()
		return
	case "ctrl+x":
		if f.mode == formEdit && f.hasPIN {
			f.removePIN = !f.removePIN
			if f.removePIN {
				f.pin.SetValue("")
				f.confirmPIN.SetValue("")
			}
		}
		return
	case " ":
		switch f.focus {
		case fieldPurchases:
			f.canMakePurchases = !f.canMakePurchases
			return
		case fieldCustomContent:
			f.canUseCustomContentTypes = !f.canUseCustomContentTypes
			return
		}
	}

	switch f.focus {
	case fieldName:
		f.name, _ = f.name.Update(msg)
	case fieldAvatar:
		f.avatar, _ = f.avatar.Update(msg)
	case fieldPIN:
		if digitsOnly(msg) {
			f.pin, _ = f.pin.Update(msg)
			f.clampConfirm()
		}
	case fieldConfirmPIN:
		if digitsOnly(msg) {
			f.confirmPIN, _ = f.confirmPIN.Update(msg)
		}
	}
}

// digitsOnly lets editing keys through but drops non-digit runes.
func digitsOnly(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes {
		return true
	}
	for _, r := range msg.Runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// clampConfirm keeps the confirmation field no longer than the PIN
// entered so far.
func (f *profileForm) clampConfirm() {
	limit := len(f.pin.Value())
	if limit == 0 {
		f.confirmPIN.SetValue("")
		return
	}
	if v := f.confirmPIN.Value(); len(v) > limit {
		f.confirmPIN.SetValue(v[:limit])
	}
}

func (f *profileForm) validate() error {
	name := strings.TrimSpace(f.name.Value())
	if name == "" {
		return errors.New("a profile name is required")
	}
	pin := f.pin.Value()
	if pin != "" {
		if len(pin) != pingate.PINLength {
			return fmt.Errorf("the PIN must be exactly %d digits", pingate.PINLength)
		}
		if pin != f.confirmPIN.Value() {
			return errors.New("the PIN and its confirmation do not match")
		}
	}
	return nil
}

func (f *profileForm) createRequest() model.CreateProfileRequest {
	req := model.CreateProfileRequest{
		Name:                     strings.TrimSpace(f.name.Value()),
		Avatar:                   strings.TrimSpace(f.avatar.Value()),
		CanMakePurchases:         f.canMakePurchases,
		CanUseCustomContentTypes: f.canUseCustomContentTypes,
	}
	if pin := f.pin.Value(); pin != "" {
		req.PIN = &pin
	}
	return req
}

func (f *profileForm) updateRequest() model.UpdateProfileRequest {
	var req model.UpdateProfileRequest
	if name := strings.TrimSpace(f.name.Value()); name != f.origName {
		req.Name = &name
	}
	if avatar := strings.TrimSpace(f.avatar.Value()); avatar != f.origAvatar {
		req.Avatar = &avatar
	}
	if f.removePIN {
		empty := ""
		req.PIN = &empty
	} else if pin := f.pin.Value(); pin != "" {
		req.PIN = &pin
	}
	if f.canMakePurchases != f.origPurchases {
		v := f.canMakePurchases
		req.CanMakePurchases = &v
	}
	if f.canUseCustomContentTypes != f.origCustom {
		v := f.canUseCustomContentTypes
		req.CanUseCustomContentTypes = &v
	}
	return req
}

func (f *profileForm) View() string {
	title := "New profile"
	if f.mode == formEdit {
		title = "Edit profile"
	}

	pinLabel := "PIN (optional, 4 digits)"
	if f.removePIN {
		pinLabel = "PIN (will be removed)"
	}

	rows := []string{
		titleStyle.Render(title),
		"",
		f.row(fieldName, "Name", f.name.View()),
		f.row(fieldAvatar, "Avatar", f.avatar.View()),
		f.row(fieldPIN, pinLabel, f.pin.View()),
		f.row(fieldConfirmPIN, "Confirm PIN", f.confirmPIN.View()),
		f.row(fieldPurchases, "Purchases", checkbox(f.canMakePurchases)),
		f.row(fieldCustomContent, "Custom content", checkbox(f.canUseCustomContentTypes)),
		"",
		f.row(fieldSubmit, "", submitLabel(f.focus == fieldSubmit)),
	}

	if f.errMsg != "" {
		rows = append(rows, "", errorStyle.Render(f.errMsg))
	}

	hints := "tab → next field    space → toggle    ctrl+s → save    esc → back"
	if f.mode == formEdit {
		if f.hasPIN {
			hints += "    ctrl+x → remove PIN"
		}
		if !f.isDefault {
			hints += "    ctrl+d → delete"
		}
	}
	rows = append(rows, "", hintStyle.Render(hints))

	return boxStyle.Render(strings.Join(rows, "\n"))
}

func (f *profileForm) row(idx int, label, control string) string {
	cursor := "  "
	if f.focus == idx {
		cursor = focusedStyle.Render("> ")
	}
	if label == "" {
		return cursor + control
	}
	return cursor + labelStyle.Render(fmt.Sprintf("%-24s", label)) + control
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func submitLabel(focused bool) string {
	if focused {
		return focusedStyle.Render("[ Save ]")
	}
	return "[ Save ]"
}
