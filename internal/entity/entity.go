// Package entity describes the records the dashboard manages. A single
// Descriptor value drives the list screen, the form and the REST paths, so
// clients and customers share every piece of screen logic.
package entity

import (
	"fmt"
	"slices"
	"strconv"
)

// Row is one flat record of a backend page, decoded from JSON.
type Row map[string]any

// Get returns the raw value of field (nil when absent).
func (r Row) Get(field string) any {
	return r[field]
}

// String renders field for display. Whole numbers print without decimals.
func (r Row) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// FieldKind selects how a form field is edited and validated.
type FieldKind int

const (
	KindText FieldKind = iota
	KindPassword
	KindEmail
	KindPhone
	KindChoice
)

// Field is one input of the create/edit form.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// CreateOnly fields are required when creating and optional when editing.
	CreateOnly bool
}

// Column is one list-screen column.
type Column struct {
	ID    string
	Label string
	Width int
}

// Descriptor is everything entity-specific about a screen.
type Descriptor struct {
	Name   string // singular, capitalised ("Client")
	Plural string // screen title ("Clients")
	Path   string // REST collection path

	IdentityField  string
	DisplayField   string
	DefaultOrderBy string

	Columns []Column
	Fields  []Field

	DeleteWarning string

	// ReadOnlyFor lists roles that may only browse.
	ReadOnlyFor []string
	// OwnerField is pre-filled with, and locked to, the signed-in username
	// for the roles in OwnedBy.
	OwnerField string
	OwnedBy    []string
}

// Key returns the identity key of r.
func (d Descriptor) Key(r Row) string {
	return r.String(d.IdentityField)
}

// Keys returns the identity keys of rows in order.
func (d Descriptor) Keys(rows []Row) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = d.Key(r)
	}
	return keys
}

// DisplayName is the value the name filter matches against.
func (d Descriptor) DisplayName(r Row) string {
	return r.String(d.DisplayField)
}

// ReadOnly reports whether role may not create, edit or delete.
func (d Descriptor) ReadOnly(role string) bool {
	return slices.Contains(d.ReadOnlyFor, role)
}

// OwnerLocked reports whether OwnerField is fixed to the session user.
func (d Descriptor) OwnerLocked(role string) bool {
	return d.OwnerField != "" && slices.Contains(d.OwnedBy, role)
}

// HasColumn reports whether id is a sortable column.
func (d Descriptor) HasColumn(id string) bool {
	return slices.ContainsFunc(d.Columns, func(c Column) bool { return c.ID == id })
}

// Field looks up a form field by name.
func (d Descriptor) Field(name string) (Field, bool) {
	i := slices.IndexFunc(d.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return d.Fields[i], true
}

// RoleClient is the role of a signed-in client account.
const RoleClient = "client"

var Clients = Descriptor{
	Name:           "Client",
	Plural:         "Clients",
	Path:           "clients",
	IdentityField:  "user_name",
	DisplayField:   "client_name",
	DefaultOrderBy: "client_name",
	Columns: []Column{
		{ID: "client_name", Label: "Client Name", Width: 20},
		{ID: "user_name", Label: "Username", Width: 14},
		{ID: "industry", Label: "Industry", Width: 14},
		{ID: "email", Label: "Email", Width: 24},
		{ID: "mobile_number", Label: "Mobile Number", Width: 16},
		{ID: "creation_time", Label: "Created At", Width: 20},
	},
	Fields: []Field{
		{Name: "client_name", Label: "Client Name", Required: true},
		{Name: "user_name", Label: "User Name", Required: true},
		{Name: "password", Label: "Password", Kind: KindPassword, Required: true, CreateOnly: true},
		{Name: "industry", Label: "Industry", Required: true},
		{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
		{Name: "mobile_number", Label: "Mobile Number", Kind: KindPhone, Required: true},
	},
	DeleteWarning: "Deleting a client also deletes every customer associated with it.",
}

var Customers = Descriptor{
	Name:           "Customer",
	Plural:         "Customers",
	Path:           "customers",
	IdentityField:  "user_name",
	DisplayField:   "customer_name",
	DefaultOrderBy: "customer_name",
	Columns: []Column{
		{ID: "customer_name", Label: "Customer Name", Width: 20},
		{ID: "user_name", Label: "Username", Width: 14},
		{ID: "client_username", Label: "Client Username", Width: 16},
		{ID: "email", Label: "Email", Width: 24},
		{ID: "mobile_number", Label: "Mobile Number", Width: 16},
		{ID: "creation_time", Label: "Created At", Width: 20},
	},
	Fields: []Field{
		{Name: "customer_name", Label: "Customer Name", Required: true},
		{Name: "user_name", Label: "User Name", Required: true},
		{Name: "password", Label: "Password", Kind: KindPassword, Required: true, CreateOnly: true},
		{Name: "client_username", Label: "Client", Kind: KindChoice, Required: true},
		{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
		{Name: "mobile_number", Label: "Mobile Number", Kind: KindPhone, Required: true},
	},
	DeleteWarning: "Are you sure you want to delete this customer?",
	// Clients only browse customers today; the owner lock applies if that
	// role is ever given write access.
	ReadOnlyFor:   []string{RoleClient},
	OwnerField:    "client_username",
	OwnedBy:       []string{RoleClient},
}

// All lists the descriptors in menu order.
var All = []Descriptor{Clients, Customers}

// Lookup finds a descriptor by path or name, case-sensitively on path.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range All {
		if d.Path == name || d.Name == name || d.Plural == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Option is one entry of a choice field, e.g. a client in the customer form.
type Option struct {
	Label string `json:"client_name"`
	Value string `json:"user_name"`
}
