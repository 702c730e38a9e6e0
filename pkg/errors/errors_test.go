package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFollowsWrappedChain(t *testing.T) {
	cause := stderrors.New("saldo insuficiente")
	err := fmt.Errorf("charging reply: %w", FailedPrecondition("not enough Mimos", cause))

	assert.True(t, Is(err, CodeFailedPrecondition))
	assert.False(t, Is(err, CodeNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeFailedPrecondition, Code(err))
}

func TestCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(stderrors.New("boom")))
}

func TestStatuses(t *testing.T) {
	assert.Equal(t, http.StatusPreconditionFailed, FailedPrecondition("x", nil).Status)
	assert.Equal(t, http.StatusServiceUnavailable, GatewayUnavailable("x", nil).Status)
	assert.Equal(t, http.StatusUnprocessableEntity, GatewayRejected("x", nil).Status)
	assert.Equal(t, "User not found", NotFound("User", nil).Message)
}
