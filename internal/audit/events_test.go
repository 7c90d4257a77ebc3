package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewRecorder(zap.New(core))

	r.Record(Event{
		Principal: "root",
		Action:    ActionAccessDenied,
		Path:      "/admin/products",
		Status:    "denied",
		Metadata:  map[string]string{"required": "products"},
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "root", fields["principal"])
	assert.Equal(t, ActionAccessDenied, fields["action"])
	assert.Equal(t, "/admin/products", fields["path"])
	assert.NotNil(t, fields["at"])
}
