package audit

import (
	"time"

	"go.uber.org/zap"
)

// Actions recorded by the back office.
const (
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionAccessDenied = "access_denied"
)

// Event captures an auditable access action. Passwords and tokens are
// never part of an event.
type Event struct {
	Timestamp time.Time
	Principal string
	Action    string
	Path      string
	Status    string
	Metadata  map[string]string
}

// Recorder writes audit events to a dedicated logger.
type Recorder struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing under the "audit" logger name.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit"), now: time.Now}
}

// Record stamps and writes the event.
func (r *Recorder) Record(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	fields := []zap.Field{
		zap.Time("at", e.Timestamp),
		zap.String("principal", e.Principal),
		zap.String("action", e.Action),
		zap.String("status", e.Status),
	}
	if e.Path != "" {
		fields = append(fields, zap.String("path", e.Path))
	}
	if len(e.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", e.Metadata))
	}
	r.logger.Info("audit event", fields...)
}
