package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

type menuItem struct {
	desc     entity.Descriptor
	readOnly bool
}

func (i menuItem) Title() string { return i.desc.Plural }

func (i menuItem) Description() string {
	if i.readOnly {
		return fmt.Sprintf("Browse your %s", strings.ToLower(i.desc.Plural))
	}
	return fmt.Sprintf("Add, edit and delete %s", strings.ToLower(i.desc.Plural))
}

func (i menuItem) FilterValue() string { return i.desc.Plural }

// menuItems lists the screens available to the signed-in role. Clients
// only see their own customers.
func menuItems(s session.Session) []list.Item {
	var items []list.Item
	for _, d := range entity.All {
		if s.Is(entity.RoleClient) && d.Path == entity.Clients.Path {
			continue
		}
		items = append(items, menuItem{desc: d, readOnly: d.ReadOnly(s.Role)})
	}
	return items
}
