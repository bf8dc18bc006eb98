package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
)

func sampleRoles() []Role {
	return []Role{
		{ID: "super_admin", Name: "Super Admin", IsBuiltIn: true},
		{ID: "Admin", Name: "Admin", IsBuiltIn: true},
		{ID: "customer", Name: "Customer", IsBuiltIn: true},
		{ID: "user", Name: "User", IsBuiltIn: true},
		{ID: "collaborator", Name: "Collaborator", IsBuiltIn: true},
		{ID: "reviewer_1a2b3c4d", Name: "Reviewer"},
	}
}

func ids(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterVisible(t *testing.T) {
	all := sampleRoles()

	cases := []struct {
		caller string
		want   []string
	}{
		{caller: "super_admin", want: []string{"Admin"}},
		{caller: "SUPER_ADMIN", want: []string{"Admin"}},
		{caller: "admin", want: []string{"super_admin", "customer", "user", "collaborator", "reviewer_1a2b3c4d"}},
		{caller: "customer", want: ids(all)},
		{caller: "", want: ids(all)},
	}
	for _, tc := range cases {
		t.Run(tc.caller, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterVisible(tc.caller, all)))
		})
	}
}

func TestFilterVisibleDoesNotMutateInput(t *testing.T) {
	all := sampleRoles()
	before := ids(all)

	_ = FilterVisible("admin", all)

	assert.Equal(t, before, ids(all))
}

func TestCanEdit(t *testing.T) {
	custom := Role{ID: "reviewer_1a2b3c4d", Name: "Reviewer"}

	assert.True(t, CanEdit("super_admin", Role{ID: "admin", IsBuiltIn: true}))
	assert.False(t, CanEdit("super_admin", Role{ID: "customer", IsBuiltIn: true}))
	assert.False(t, CanEdit("super_admin", custom))

	assert.True(t, CanEdit("admin", Role{ID: "customer", IsBuiltIn: true}))
	assert.True(t, CanEdit("admin", Role{ID: "user", IsBuiltIn: true}))
	assert.True(t, CanEdit("admin", Role{ID: "collaborator", IsBuiltIn: true}))
	assert.True(t, CanEdit("admin", custom))
	assert.False(t, CanEdit("admin", Role{ID: "admin", IsBuiltIn: true}))
	assert.False(t, CanEdit("admin", Role{ID: "super_admin", IsBuiltIn: true}))

	assert.False(t, CanEdit("customer", custom))
	assert.False(t, CanEdit("user", Role{ID: "user", IsBuiltIn: true}))
}

func TestCanDeleteNeverAllowsBuiltIns(t *testing.T) {
	for _, r := range sampleRoles() {
		if !r.IsBuiltIn {
			continue
		}
		for _, caller := range []string{"super_admin", "admin", "customer"} {
			assert.False(t, CanDelete(caller, r), "%s deleting %s", caller, r.ID)
		}
	}
	assert.True(t, CanDelete("admin", Role{ID: "reviewer_1a2b3c4d"}))
	assert.False(t, CanDelete("super_admin", Role{ID: "reviewer_1a2b3c4d"}))
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate("admin"))
	assert.False(t, CanCreate("super_admin"))
	assert.False(t, CanCreate("collaborator"))
}

func TestDefaultRoles(t *testing.T) {
	defaults := DefaultRoles(permissions.DefaultCatalog())
	require.Len(t, defaults, 5)
	assert.Equal(t, []string{"super_admin", "admin", "customer", "user", "collaborator"}, ids(defaults))

	for _, r := range defaults {
		assert.True(t, r.IsBuiltIn)
	}
	assert.Equal(t, "Super Admin", defaults[0].Name)
	assert.True(t, defaults[1].Permissions.Has(permissions.KeyRoles, permissions.ScopeDelete))
	assert.False(t, defaults[4].Permissions.Has(permissions.KeyProposals, permissions.ScopeRead))

	_, flag := defaults[2].Permissions[permissions.KeyAIGenerate]
	assert.True(t, flag)
}

func TestDefaultRolesWithSparseCatalog(t *testing.T) {
	catalog := permissions.MustCatalog(permissions.Definition{
		Key: permissions.KeyContent, Scopes: []permissions.Scope{permissions.ScopeRead},
	})

	defaults := DefaultRoles(catalog)

	assert.Equal(t, []permissions.Scope{permissions.ScopeRead}, defaults[4].Permissions[permissions.KeyContent])
	assert.NotContains(t, defaults[2].Permissions, permissions.KeyProposals)
}

func TestMergeDefaults(t *testing.T) {
	defaults := []Role{
		{ID: "super_admin", Name: "Super Admin", IsBuiltIn: true},
		{ID: "admin", Name: "Admin", IsBuiltIn: true},
		{ID: "customer", Name: "Customer", IsBuiltIn: true},
	}
	stored := []Role{
		{ID: "zeta_00000001", Name: "zeta"},
		{ID: "admin", Name: "Admin", Permissions: permissions.Set{"x": {permissions.ScopeRead}}},
		{ID: "alpha_00000002", Name: "Alpha"},
	}

	merged := MergeDefaults(stored, defaults)

	assert.Equal(t, []string{"super_admin", "admin", "customer", "alpha_00000002", "zeta_00000001"}, ids(merged))
	assert.True(t, merged[1].IsBuiltIn)
	assert.Equal(t, permissions.Set{"x": {permissions.ScopeRead}}, merged[1].Permissions)
}
