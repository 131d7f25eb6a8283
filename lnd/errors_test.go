package lnd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsTransportError(t *testing.T) {
	assert.False(t, IsTransportError(nil))
	assert.True(t, IsTransportError(status.Error(codes.Unavailable, "connection refused")))
	assert.True(t, IsTransportError(status.Error(codes.DeadlineExceeded, "timeout")))
	assert.True(t, IsTransportError(status.Error(codes.Unauthenticated, "bad macaroon")))
	assert.True(t, IsTransportError(status.Error(codes.PermissionDenied, "permission denied")))
	assert.True(t, IsTransportError(fmt.Errorf("pay: %w", context.DeadlineExceeded)))

	assert.False(t, IsTransportError(status.Error(codes.Unknown, "invoice is already paid")))
	assert.False(t, IsTransportError(status.Error(codes.NotFound, "payment isn't initiated")))
	assert.False(t, IsTransportError(errors.New("unable to find a path to destination")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(status.Error(codes.NotFound, "payment isn't initiated")))
	assert.False(t, IsNotFound(status.Error(codes.Unavailable, "down")))
	assert.False(t, IsNotFound(errors.New("not found")))
}
