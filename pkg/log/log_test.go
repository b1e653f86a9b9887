package log

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewTraceIDPrefersRequestID(t *testing.T) {
	fields := Fields{RequestIDKey: "01HZX"}
	assert.Equal(t, "01HZX", NewTraceID(fields))
	assert.Equal(t, "01HZX", fields["trace_id"])
}

func TestNewTraceIDGeneratesUUID(t *testing.T) {
	for _, fields := range []Fields{{}, {RequestIDKey: "unknown"}} {
		id := NewTraceID(fields)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, fields["trace_id"])
	}
}
