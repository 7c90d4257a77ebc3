package auth

// State is where a guarded route stands for one session snapshot.
type State int

const (
	// StateUnresolved means the session is still loading; render a
	// neutral pending view, neither content nor denial.
	StateUnresolved State = iota
	// StateRedirecting means nobody is signed in; send them to login.
	StateRedirecting
	// StateDenied means the user is signed in but lacks a role or permission.
	StateDenied
	// StateGranted means the protected view may render.
	StateGranted
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateRedirecting:
		return "redirecting"
	case StateDenied:
		return "denied"
	case StateGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends evaluation for this snapshot.
func (s State) Terminal() bool {
	return s != StateUnresolved
}

// DenyReason says which layer of the guard refused access.
type DenyReason string

const (
	DenyNone       DenyReason = ""
	DenyRole       DenyReason = "role"
	DenyPermission DenyReason = "permission"
)

// DefaultLoginPath is where unauthenticated users are redirected.
const DefaultLoginPath = "/login"

// RouteRule is what a protected route demands: a role allow-list checked
// first, then a permission requirement. An empty allow-list admits any
// signed-in role.
type RouteRule struct {
	Roles       []Role      `json:"roles,omitempty"`
	Requirement Requirement `json:"requirement"`
}

// AllowsRole reports whether r passes the role layer.
func (rr RouteRule) AllowsRole(r Role) bool {
	if len(rr.Roles) == 0 {
		return r.Valid()
	}
	for _, allowed := range rr.Roles {
		if allowed == r {
			return true
		}
	}
	return false
}

// Decision is the outcome of evaluating a RouteRule against a session.
type Decision struct {
	State      State
	RedirectTo string
	Reason     DenyReason
	// Roles echoes the role allow-list on a role denial.
	Roles []Role
	// Required and Missing echo the permission requirement on a
	// permission denial.
	Required Requirement
	Missing  []Permission
}

// Guard evaluates route rules. The zero value redirects to DefaultLoginPath.
type Guard struct {
	LoginPath string
}

// Evaluate decides a single route for a single session snapshot.
// It is a pure function of its inputs, so any session change simply
// means calling it again. Only anonymous sessions are redirected to
// login; a signed-in session whose role is not allowed is denied.
func (g Guard) Evaluate(s Session, rule RouteRule) Decision {
	if s.Loading {
		return Decision{State: StateUnresolved}
	}
	if !s.Authenticated() {
		return Decision{State: StateRedirecting, RedirectTo: g.loginPath()}
	}
	if !rule.AllowsRole(s.Role) {
		return Decision{State: StateDenied, Reason: DenyRole, Roles: rule.Roles}
	}
	if !HasPermission(s, rule.Requirement) {
		return Decision{
			State:    StateDenied,
			Reason:   DenyPermission,
			Required: rule.Requirement,
			Missing:  rule.Requirement.Missing(s.Permissions),
		}
	}
	return Decision{State: StateGranted}
}

// CheckRoles runs only the role layer. The result is Granted when the
// role passes; the permission layer is left to CheckPermission.
func (g Guard) CheckRoles(s Session, roles ...Role) Decision {
	return g.Evaluate(s, RouteRule{Roles: roles})
}

// CheckPermission runs only the permission layer for content that has
// already passed a role check.
func (g Guard) CheckPermission(s Session, req Requirement) Decision {
	if s.Loading {
		return Decision{State: StateUnresolved}
	}
	if !HasPermission(s, req) {
		return Decision{
			State:    StateDenied,
			Reason:   DenyPermission,
			Required: req,
			Missing:  req.Missing(s.Permissions),
		}
	}
	return Decision{State: StateGranted}
}

func (g Guard) loginPath() string {
	if g.LoginPath == "" {
		return DefaultLoginPath
	}
	return g.LoginPath
}
