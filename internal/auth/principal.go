package auth

// Session is the authenticated identity of one browser context.
// The zero value is the anonymous session.
type Session struct {
	Username    string        `json:"username,omitempty"`
	Role        Role          `json:"role,omitempty"`
	Permissions PermissionSet `json:"permissions"`
	// Loading is set while authentication is still in flight. No
	// authorization decision is final until it clears.
	Loading bool `json:"loading"`
}

// Anonymous returns the signed-out session.
func Anonymous() Session {
	return Session{Permissions: PermissionSet{}}
}

// Pending returns a session whose identity is not yet known.
func Pending() Session {
	return Session{Permissions: PermissionSet{}, Loading: true}
}

// NewSession builds a resolved session for a signed-in user.
func NewSession(username string, role Role, perms ...Permission) Session {
	return Session{
		Username:    username,
		Role:        role,
		Permissions: NewPermissionSet(perms...),
	}
}

// Authenticated reports whether a user is signed in. A loading session
// is never authenticated.
func (s Session) Authenticated() bool {
	return !s.Loading && s.Username != "" && s.Role.Valid()
}

// Equal reports whether two snapshots would produce the same decisions.
func (s Session) Equal(o Session) bool {
	if s.Username != o.Username || s.Role != o.Role || s.Loading != o.Loading {
		return false
	}
	if len(s.Permissions) != len(o.Permissions) {
		return false
	}
	for p := range s.Permissions {
		if !o.Permissions.Has(p) {
			return false
		}
	}
	return true
}
