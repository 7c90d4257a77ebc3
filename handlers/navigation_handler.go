package handlers

import (
	"net/http"

	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/utils"
)

// NavigationResponse lists the links and protected routes open to the caller
type NavigationResponse struct {
	Links  []auth.NavLink `json:"links"`
	Routes []RouteEntry   `json:"routes"`
}

// RouteEntry is one reachable protected route
type RouteEntry struct {
	Path string `json:"path"`
	View string `json:"view"`
}

// NavigationHandler answers GET /api/navigation
type NavigationHandler struct {
	guard auth.Guard
	table auth.RouteTable
}

// NewNavigationHandler creates a new NavigationHandler
func NewNavigationHandler(guard auth.Guard, table auth.RouteTable) *NavigationHandler {
	return &NavigationHandler{guard: guard, table: table}
}

// ServeHTTP renders the navigation for ?path= (defaults to "/")
func (h *NavigationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	current := r.URL.Query().Get("path")
	if current == "" {
		current = "/"
	}

	routes := make([]RouteEntry, 0)
	for _, route := range h.table.Reachable(h.guard, s) {
		routes = append(routes, RouteEntry{Path: route.Path, View: route.View})
	}

	_ = utils.WriteJSON(w, http.StatusOK, NavigationResponse{
		Links:  auth.NavLinks(s, current),
		Routes: routes,
	})
}
