package auth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Role is the coarse identity classification of a signed-in user.
type Role string

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a stored role name onto the closed role set.
// Matching is case-insensitive; unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleStaff):
		return RoleStaff, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// Permission is a named capability checked per protected view.
type Permission string

const (
	PermPOS           Permission = "pos"
	PermProducts      Permission = "products"
	PermUsers         Permission = "users"
	PermAnnouncements Permission = "announcements"
	PermReports       Permission = "reports"
	PermPayments      Permission = "payments"
)

// Catalog lists every permission the back office knows about, in display order.
var Catalog = []Permission{
	PermPOS,
	PermProducts,
	PermUsers,
	PermAnnouncements,
	PermReports,
	PermPayments,
}

// PermissionSet is an unordered set of granted permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given names, skipping empty ones.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether p is in the set. A nil set holds nothing.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted members as plain strings.
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON accepts every shape ParsePermissions understands.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParsePermissions(raw)
	return nil
}

// ParsePermissions normalizes the permission shapes found in stored
// profiles: a list of names, an object of name -> bool, or a single
// string separated by ',' or '|'. Anything else yields an empty set.
func ParsePermissions(raw any) PermissionSet {
	set := PermissionSet{}
	switch v := raw.(type) {
	case []string:
		for _, name := range v {
			set.add(name)
		}
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				set.add(name)
			} else if item != nil {
				set.add(fmt.Sprint(item))
			}
		}
	case map[string]bool:
		for name, granted := range v {
			if granted {
				set.add(name)
			}
		}
	case map[string]any:
		for name, granted := range v {
			if truthy(granted) {
				set.add(name)
			}
		}
	case string:
		for _, name := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '|' }) {
			set.add(name)
		}
	}
	return set
}

func (s PermissionSet) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s[Permission(name)] = struct{}{}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	case nil:
		return false
	default:
		return true
	}
}

// Mode selects how a multi-permission requirement is satisfied.
type Mode string

const (
	// ModeAny is satisfied by holding at least one required permission.
	ModeAny Mode = "any"
	// ModeAll is satisfied only by holding every required permission.
	ModeAll Mode = "all"
)

// ParseMode never fails: anything other than "all" is treated as ModeAny.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAll)) {
		return ModeAll
	}
	return ModeAny
}

// Requirement is the set of permissions a guarded view asks for.
type Requirement struct {
	Permissions []Permission `json:"permissions"`
	Mode        Mode         `json:"mode"`
}

// Any builds a requirement satisfied by any one of perms.
func Any(perms ...Permission) Requirement {
	return Requirement{Permissions: perms, Mode: ModeAny}
}

// All builds a requirement satisfied only by every one of perms.
func All(perms ...Permission) Requirement {
	return Requirement{Permissions: perms, Mode: ModeAll}
}

// Require builds a requirement from a textual mode and plain names.
func Require(mode string, names ...string) Requirement {
	perms := make([]Permission, len(names))
	for i, n := range names {
		perms[i] = Permission(n)
	}
	return Requirement{Permissions: perms, Mode: ParseMode(mode)}
}

// IsEmpty reports whether the requirement asks for nothing.
func (r Requirement) IsEmpty() bool {
	return len(r.Permissions) == 0
}

// Missing returns the required permissions the set does not hold, in
// requirement order.
func (r Requirement) Missing(held PermissionSet) []Permission {
	var missing []Permission
	for _, p := range r.Permissions {
		if !held.Has(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// String renders the requirement for logs and denial messages.
func (r Requirement) String() string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = string(p)
	}
	joined := strings.Join(names, ", ")
	if r.mode() == ModeAll && len(names) > 1 {
		return joined + " (all)"
	}
	return joined
}

func (r Requirement) mode() Mode {
	if r.Mode == ModeAll {
		return ModeAll
	}
	return ModeAny
}

// HasPermission decides whether the session satisfies the requirement.
// An empty requirement is always satisfied; an anonymous session holds
// no permissions. Roles grant nothing implicitly.
func HasPermission(s Session, req Requirement) bool {
	if req.IsEmpty() {
		return true
	}
	if req.mode() == ModeAll {
		for _, p := range req.Permissions {
			if !s.Permissions.Has(p) {
				return false
			}
		}
		return true
	}
	for _, p := range req.Permissions {
		if s.Permissions.Has(p) {
			return true
		}
	}
	return false
}

// HasAnyPermission is HasPermission with ModeAny.
func HasAnyPermission(s Session, perms ...Permission) bool {
	return HasPermission(s, Any(perms...))
}

// HasAllPermissions is HasPermission with ModeAll.
func HasAllPermissions(s Session, perms ...Permission) bool {
	return HasPermission(s, All(perms...))
}

// IsAdmin reports whether the session belongs to an administrator.
func IsAdmin(s Session) bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// AvailablePermissions lists what the session may be shown as grantable.
// Administrators see the whole catalog; everyone else sees their own grants.
func AvailablePermissions(s Session) []Permission {
	if !s.Authenticated() {
		return []Permission{}
	}
	if s.Role == RoleAdmin {
		out := make([]Permission, len(Catalog))
		copy(out, Catalog)
		return out
	}
	return s.Permissions.Sorted()
}
