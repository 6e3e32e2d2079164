package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFound("chat"), IsNotFound},
		{"wrapped not found", fmt.Errorf("get chat: %w", NotFound("chat")), IsNotFound},
		{"invalid operation", InvalidOperation("only assistant messages can be regenerated"), IsInvalidOperation},
		{"ingestion", NewIngestionError(cause), IsIngestion},
		{"retrieval", fmt.Errorf("search: %w", NewRetrievalError(cause)), IsRetrieval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestWrappedCauseIsReachable(t *testing.T) {
	cause := errors.New("connection refused")

	assert.ErrorIs(t, NewIngestionError(cause), cause)
	assert.ErrorIs(t, NewRetrievalError(cause), cause)
	assert.Equal(t, "document retrieval failed: connection refused", NewRetrievalError(cause).Error())
	assert.Equal(t, "chat not found", NotFound("chat").Error())
	assert.False(t, IsNotFound(cause))
}
