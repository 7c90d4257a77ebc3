package auth

import "strings"

// Route is one entry of the back-office route table.
type Route struct {
	Path string    `json:"path"`
	View string    `json:"view"`
	Rule RouteRule `json:"rule"`
}

// RouteTable maps protected paths to their rules. Paths not in the
// table are public.
type RouteTable []Route

var staffOrAdmin = []Role{RoleStaff, RoleAdmin}

// BackOffice is the restaurant's route table.
var BackOffice = RouteTable{
	{Path: "/staff/billing", View: "staff.billing", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermPOS)}},
	{Path: "/staff/orders", View: "staff.orders", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermPOS)}},
	{Path: "/staff/workflow", View: "staff.workflow", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermPOS)}},
	{Path: "/admin", View: "admin.dashboard", Rule: RouteRule{Roles: staffOrAdmin}},
	{Path: "/admin/workflowpos", View: "admin.workflowpos", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermPOS)}},
	{Path: "/admin/users", View: "admin.users", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermUsers)}},
	{Path: "/admin/products", View: "admin.products", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermProducts)}},
	{Path: "/admin/permissions", View: "admin.permissions", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermUsers)}},
	{Path: "/admin/announcements", View: "admin.announcements", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermAnnouncements)}},
	{Path: "/admin/payments", View: "admin.payments", Rule: RouteRule{Roles: staffOrAdmin, Requirement: Any(PermReports)}},
}

// Lookup finds the route registered for path. Trailing slashes are ignored.
func (t RouteTable) Lookup(path string) (Route, bool) {
	path = normalizePath(path)
	for _, r := range t {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Reachable lists the routes the session would be granted, in table order.
func (t RouteTable) Reachable(g Guard, s Session) []Route {
	var out []Route
	for _, r := range t {
		if g.Evaluate(s, r.Rule).State == StateGranted {
			out = append(out, r)
		}
	}
	return out
}

func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

// NavLink is a navigation entry shown to the user.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var publicLinks = []NavLink{
	{Label: "home", Path: "/"},
	{Label: "menu", Path: "/menu"},
	{Label: "news", Path: "/news"},
}

// NavLinks returns the navigation bar for the session while it views
// currentPath. Loading sessions get only the public links.
func NavLinks(s Session, currentPath string) []NavLink {
	links := make([]NavLink, 0, len(publicLinks)+2)
	switch {
	case s.Loading:
	case !s.Authenticated():
	case s.Role == RoleStaff:
		links = append(links,
			NavLink{Label: "workflow", Path: "/staff/workflow"},
			NavLink{Label: "orders", Path: "/staff/orders"},
		)
	case s.Role == RoleAdmin && strings.HasPrefix(currentPath, AdminLandingPath):
		links = append(links, NavLink{Label: "admin", Path: AdminLandingPath})
	}
	links = append(links, publicLinks...)
	if !s.Loading && !s.Authenticated() {
		links = append(links, NavLink{Label: "login", Path: DefaultLoginPath})
	}
	return links
}
