package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardEvaluate(t *testing.T) {
	g := Guard{}
	staffRule := RouteRule{Roles: []Role{RoleStaff, RoleAdmin}, Requirement: Any(PermPOS)}

	t.Run("loading never resolves", func(t *testing.T) {
		for _, s := range []Session{
			Pending(),
			{Username: "root", Role: RoleAdmin, Permissions: NewPermissionSet(Catalog...), Loading: true},
			{Username: "somchai", Role: RoleStaff, Loading: true},
		} {
			d := g.Evaluate(s, staffRule)
			assert.Equal(t, StateUnresolved, d.State)
			assert.False(t, d.State.Terminal())
		}
	})

	t.Run("anonymous is redirected to login", func(t *testing.T) {
		d := g.Evaluate(Anonymous(), staffRule)
		assert.Equal(t, StateRedirecting, d.State)
		assert.Equal(t, DefaultLoginPath, d.RedirectTo)
	})

	t.Run("custom login path", func(t *testing.T) {
		d := Guard{LoginPath: "/signin"}.Evaluate(Anonymous(), staffRule)
		assert.Equal(t, "/signin", d.RedirectTo)
	})

	t.Run("wrong role is denied, not redirected", func(t *testing.T) {
		rule := RouteRule{Roles: []Role{RoleAdmin}}
		d := g.Evaluate(NewSession("somchai", RoleStaff, PermPOS), rule)
		assert.Equal(t, StateDenied, d.State)
		assert.Equal(t, DenyRole, d.Reason)
		assert.Equal(t, []Role{RoleAdmin}, d.Roles)
	})

	t.Run("admin lacking permission sees which one", func(t *testing.T) {
		rule := RouteRule{Roles: []Role{RoleAdmin}, Requirement: Any(PermProducts)}
		d := g.Evaluate(NewSession("root", RoleAdmin, PermUsers), rule)
		assert.Equal(t, StateDenied, d.State)
		assert.Equal(t, DenyPermission, d.Reason)
		assert.Equal(t, []Permission{PermProducts}, d.Required.Permissions)
		assert.Equal(t, []Permission{PermProducts}, d.Missing)
	})

	t.Run("staff with pos under all mode is granted", func(t *testing.T) {
		rule := RouteRule{Roles: []Role{RoleStaff}, Requirement: All(PermPOS)}
		d := g.Evaluate(NewSession("somchai", RoleStaff, PermPOS), rule)
		assert.Equal(t, StateGranted, d.State)
	})

	t.Run("empty allow-list admits any signed-in role", func(t *testing.T) {
		d := g.Evaluate(NewSession("somchai", RoleStaff), RouteRule{})
		assert.Equal(t, StateGranted, d.State)
	})

	t.Run("session change restarts evaluation", func(t *testing.T) {
		s := Pending()
		assert.Equal(t, StateUnresolved, g.Evaluate(s, staffRule).State)
		s = NewSession("somchai", RoleStaff, PermPOS)
		assert.Equal(t, StateGranted, g.Evaluate(s, staffRule).State)
		s = Anonymous()
		assert.Equal(t, StateRedirecting, g.Evaluate(s, staffRule).State)
	})
}

func TestGuardLayers(t *testing.T) {
	g := Guard{}
	s := NewSession("somchai", RoleStaff, PermPOS)

	assert.Equal(t, StateGranted, g.CheckRoles(s, RoleStaff).State)
	assert.Equal(t, StateDenied, g.CheckRoles(s, RoleAdmin).State)

	d := g.CheckPermission(s, All(PermPOS, PermReports))
	assert.Equal(t, StateDenied, d.State)
	assert.Equal(t, []Permission{PermReports}, d.Missing)
	assert.Equal(t, StateUnresolved, g.CheckPermission(Pending(), Any(PermPOS)).State)
	assert.Equal(t, StateGranted, g.CheckPermission(s, Any()).State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unresolved", StateUnresolved.String())
	assert.Equal(t, "redirecting", StateRedirecting.String())
	assert.Equal(t, "denied", StateDenied.String())
	assert.Equal(t, "granted", StateGranted.String())
	assert.Equal(t, "unknown", State(42).String())
}
