package handlers

import (
	"net/http"
	"time"

	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/utils"
)

// DefaultRetryAfter is the polling hint sent with pending responses
const DefaultRetryAfter = time.Second

// PendingResponse is the neutral body shown while a session is loading
type PendingResponse struct {
	Status string `json:"status"`
}

// RedirectResponse accompanies a 303 to the login page
type RedirectResponse struct {
	Redirect string `json:"redirect"`
}

// ViewResponse is the body of a granted or public page
type ViewResponse struct {
	View     string         `json:"view"`
	Username string         `json:"username,omitempty"`
	Links    []auth.NavLink `json:"links,omitempty"`
}

// Views renders guard outcomes as JSON. It implements middleware.Views.
type Views struct {
	RetryAfter time.Duration
}

var _ middleware.Views = (*Views)(nil)

// NewViews creates the default views
func NewViews(retryAfter time.Duration) *Views {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &Views{RetryAfter: retryAfter}
}

// Pending answers 202 with a Retry-After hint
func (v *Views) Pending(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteAccepted(w, v.RetryAfter, PendingResponse{Status: "pending"})
}

// Redirect answers 303 See Other so the login page replaces the
// protected URL instead of stacking on it
func (v *Views) Redirect(w http.ResponseWriter, r *http.Request, location string) {
	w.Header().Set("Location", location)
	_ = utils.WriteJSON(w, http.StatusSeeOther, RedirectResponse{Redirect: location})
}

// Denied answers 403 and says what was required
func (v *Views) Denied(w http.ResponseWriter, r *http.Request, d auth.Decision) {
	details := map[string]interface{}{
		"reason": string(d.Reason),
	}
	message := "Access forbidden"

	switch d.Reason {
	case auth.DenyRole:
		message = "Your role cannot open this page"
		details["roles"] = d.Roles
	case auth.DenyPermission:
		message = "Missing permission: " + d.Required.String()
		mode := d.Required.Mode
		if mode == "" {
			mode = auth.ModeAny
		}
		details["required"] = d.Required.Permissions
		details["mode"] = mode
		details["missing"] = d.Missing
	}

	_ = utils.WriteForbidden(w, message, details)
}

// Page returns a handler that renders a named view for the caller
func Page(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := middleware.SessionFromContext(r.Context())
		_ = utils.WriteJSON(w, http.StatusOK, ViewResponse{
			View:     view,
			Username: s.Username,
			Links:    auth.NavLinks(s, r.URL.Path),
		})
	}
}
