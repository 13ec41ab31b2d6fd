package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowString(t *testing.T) {
	r := Row{
		"name":  "Alpha",
		"count": float64(42),
		"ratio": 1.5,
		"flag":  true,
	}

	assert.Equal(t, "Alpha", r.String("name"))
	assert.Equal(t, "42", r.String("count"))
	assert.Equal(t, "1.5", r.String("ratio"))
	assert.Equal(t, "true", r.String("flag"))
	assert.Equal(t, "", r.String("missing"))
	assert.Nil(t, r.Get("missing"))
}

func TestDescriptorKeys(t *testing.T) {
	rows := []Row{
		{"user_name": "alice", "client_name": "Alpha"},
		{"user_name": "bob", "client_name": "Beta"},
	}
	assert.Equal(t, []string{"alice", "bob"}, Clients.Keys(rows))
	assert.Equal(t, "Beta", Clients.DisplayName(rows[1]))
}

func TestRolePolicy(t *testing.T) {
	assert.False(t, Clients.ReadOnly(RoleClient))
	assert.True(t, Customers.ReadOnly(RoleClient))
	assert.False(t, Customers.ReadOnly("admin"))

	assert.True(t, Customers.OwnerLocked(RoleClient))
	assert.False(t, Customers.OwnerLocked("admin"))
	assert.False(t, Clients.OwnerLocked(RoleClient))
}

func TestDescriptorsAreConsistent(t *testing.T) {
	for _, d := range All {
		t.Run(d.Path, func(t *testing.T) {
			assert.True(t, d.HasColumn(d.DefaultOrderBy), "default order field must be a column")
			assert.True(t, d.HasColumn(d.IdentityField))
			assert.True(t, d.HasColumn(d.DisplayField))

			_, ok := d.Field(d.IdentityField)
			assert.True(t, ok, "identity field must be editable on create")
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"clients", "Client", "Clients"} {
		d, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "clients", d.Path)
	}

	_, ok := Lookup("orders")
	assert.False(t, ok)
}
