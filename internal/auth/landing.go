package auth

// Default landing targets per role.
const (
	StaffLandingPath = "/staff/workflow"
	AdminLandingPath = "/admin"
)

// LandingPath picks the default view for a signed-in role: staff go to
// the POS workflow, every other role to the admin dashboard.
func LandingPath(r Role) string {
	if r == RoleStaff {
		return StaffLandingPath
	}
	return AdminLandingPath
}

// Navigator performs client-side navigation.
type Navigator interface {
	// Replace moves to path without leaving the current entry in history.
	Replace(path string)
	// Push moves to path and records a new history entry.
	Push(path string)
}

// LandingState is the state of the root-path router.
type LandingState int

const (
	LandingPending LandingState = iota
	LandingPublic
	LandingNavigating
	LandingDone
)

func (s LandingState) String() string {
	switch s {
	case LandingPending:
		return "pending"
	case LandingPublic:
		return "public"
	case LandingNavigating:
		return "navigating"
	case LandingDone:
		return "done"
	default:
		return "unknown"
	}
}

// landingKey is the dependency set of the redirect: it changes only when
// the session transitions in a way that could change the target.
type landingKey struct {
	loading bool
	signed  bool
	role    Role
}

// Landing routes a visitor arriving at the root path. One Landing lives
// for one mount of the root view; it is not safe for concurrent use.
type Landing struct {
	nav   Navigator
	paths func(Role) string

	state    LandingState
	last     landingKey
	observed bool
	target   string
}

// NewLanding creates a router that navigates through nav. A nil paths
// function falls back to LandingPath.
func NewLanding(nav Navigator, paths func(Role) string) *Landing {
	if paths == nil {
		paths = LandingPath
	}
	return &Landing{nav: nav, paths: paths}
}

// Observe feeds the current session snapshot to the router. It issues
// at most one Replace per session transition: observing an unchanged
// session again is a no-op.
func (l *Landing) Observe(s Session) LandingState {
	key := landingKey{loading: s.Loading, signed: s.Authenticated(), role: s.Role}
	if l.observed && key == l.last {
		return l.state
	}
	l.observed = true
	l.last = key

	switch {
	case s.Loading:
		l.state = LandingPending
		l.target = ""
	case !key.signed:
		l.state = LandingPublic
		l.target = ""
	default:
		l.target = l.paths(s.Role)
		l.state = LandingNavigating
		l.nav.Replace(l.target)
	}
	return l.state
}

// Complete marks a pending navigation as finished.
func (l *Landing) Complete() {
	if l.state == LandingNavigating {
		l.state = LandingDone
	}
}

// State returns the current state without re-evaluating.
func (l *Landing) State() LandingState {
	return l.state
}

// Target returns the path being navigated to, if any.
func (l *Landing) Target() string {
	return l.target
}

// History is an in-memory Navigator that keeps a browser-like history
// stack. It backs tests and non-HTTP embedders.
type History struct {
	entries []string
	calls   int
}

// NewHistory starts a history at the given path.
func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

// Replace overwrites the current entry.
func (h *History) Replace(path string) {
	h.calls++
	if len(h.entries) == 0 {
		h.entries = append(h.entries, path)
		return
	}
	h.entries[len(h.entries)-1] = path
}

// Push appends a new entry.
func (h *History) Push(path string) {
	h.calls++
	h.entries = append(h.entries, path)
}

// Len is the number of history entries.
func (h *History) Len() int { return len(h.entries) }

// Current is the path of the top entry.
func (h *History) Current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Calls counts every navigation performed.
func (h *History) Calls() int { return h.calls }
