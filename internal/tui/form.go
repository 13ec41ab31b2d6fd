package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/validation"
)

// form is the create/edit dialog of one record. Choice fields keep their
// value in choice instead of an input.
type form struct {
	desc    entity.Descriptor
	editing bool
	key     string

	inputs  []textinput.Model
	options []entity.Option
	choice  map[string]int
	locked  map[string]string
	focus   int
	errors  validation.Errors

	loading        bool // record being fetched
	optionsLoading bool
	submitting     bool
}

func newForm(d entity.Descriptor, role, username string) *form {
	f := &form{
		desc:   d,
		inputs: make([]textinput.Model, len(d.Fields)),
		choice: map[string]int{},
		locked: map[string]string{},
		errors: validation.Errors{},
	}
	for i, fd := range d.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fd.Label
		ti.CharLimit = 128
		if fd.Kind == entity.KindPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.inputs[i] = ti
	}
	if d.OwnerLocked(role) {
		f.locked[d.OwnerField] = username
	}
	f.setFocus(f.firstEditable())
	return f
}

// fill loads an existing record into the inputs. Passwords are left blank
// and only sent when retyped.
func (f *form) fill(row entity.Row) {
	for i, fd := range f.desc.Fields {
		v := row.String(fd.Name)
		switch fd.Kind {
		case entity.KindPassword:
			continue
		case entity.KindChoice:
			f.choice[fd.Name] = f.optionIndex(v)
		}
		f.inputs[i].SetValue(v)
	}
}

func (f *form) optionIndex(value string) int {
	for i, o := range f.options {
		if o.Value == value {
			return i
		}
	}
	return -1
}

// setOptions installs the choices, keeping any value already picked.
func (f *form) setOptions(opts []entity.Option) {
	f.options = opts
	for i, fd := range f.desc.Fields {
		if fd.Kind == entity.KindChoice {
			f.choice[fd.Name] = f.optionIndex(f.inputs[i].Value())
		}
	}
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	if n == 0 {
		return
	}
	f.focus = (i + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// hasChoice reports whether some unlocked field needs the options list.
func (f *form) hasChoice() bool {
	for _, fd := range f.desc.Fields {
		if _, ok := f.locked[fd.Name]; fd.Kind == entity.KindChoice && !ok {
			return true
		}
	}
	return false
}

func (f *form) firstEditable() int {
	for i, fd := range f.desc.Fields {
		if _, ok := f.locked[fd.Name]; !ok {
			return i
		}
	}
	return 0
}

func (f *form) focused() entity.Field {
	return f.desc.Fields[f.focus]
}

// cycle moves the focused choice field to the next or previous option.
func (f *form) cycle(delta int) {
	fd := f.focused()
	if fd.Kind != entity.KindChoice || len(f.options) == 0 {
		return
	}
	if _, ok := f.locked[fd.Name]; ok {
		return
	}
	n := len(f.options)
	idx, ok := f.choice[fd.Name]
	if !ok || idx < 0 {
		idx = 0
		if delta < 0 {
			idx = n - 1
		}
	} else {
		idx = (idx + delta + n) % n
	}
	f.choice[fd.Name] = idx
	f.inputs[f.focus].SetValue(f.options[idx].Value)
	delete(f.errors, fd.Name)
}

// update routes a key to the focused input. Choice fields do not take
// typed text.
func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	fd := f.focused()
	if fd.Kind == entity.KindChoice {
		return nil
	}
	if _, ok := f.locked[fd.Name]; ok {
		return nil
	}
	var cmd tea.Cmd
	before := f.inputs[f.focus].Value()
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.inputs[f.focus].Value() != before {
		delete(f.errors, fd.Name)
	}
	return cmd
}

func (f *form) values() map[string]string {
	values := make(map[string]string, len(f.inputs))
	for i, fd := range f.desc.Fields {
		values[fd.Name] = strings.TrimSpace(f.inputs[i].Value())
	}
	for name, v := range f.locked {
		values[name] = v
	}
	return values
}

func (f *form) validate() bool {
	f.errors = validation.Form(f.desc, f.values(), f.editing)
	return f.errors.Valid()
}

// row is the payload sent to the backend. A blank password on edit means
// "unchanged" and is omitted.
func (f *form) row() entity.Row {
	row := entity.Row{}
	for name, v := range f.values() {
		if fd, ok := f.desc.Field(name); ok && fd.Kind == entity.KindPassword && f.editing && v == "" {
			continue
		}
		row[name] = v
	}
	return row
}

// display is the text shown for field i.
func (f *form) display(i int) string {
	fd := f.desc.Fields[i]
	if v, ok := f.locked[fd.Name]; ok {
		return v + " (locked)"
	}
	if fd.Kind != entity.KindChoice {
		return f.inputs[i].View()
	}
	idx, ok := f.choice[fd.Name]
	switch {
	case f.optionsLoading && len(f.options) == 0:
		return statusStyle.Render("loading...")
	case ok && idx >= 0 && idx < len(f.options):
		return "‹ " + f.options[idx].Label + " (" + f.options[idx].Value + ") ›"
	case f.inputs[i].Value() != "":
		return "‹ " + f.inputs[i].Value() + " ›"
	default:
		return statusStyle.Render("‹ choose with ctrl+n/ctrl+p ›")
	}
}
