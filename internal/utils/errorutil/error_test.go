package errorutil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "context"))

	base := errors.New("base")
	err := WrapError(base, "failed to read %s", "token")
	assert.EqualError(t, err, "failed to read token: base")
	assert.ErrorIs(t, err, base)
}

func TestHandleContextError(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	HandleContextError(log, ctx, errors.New("x"), "timed out", "failed")
	assert.Contains(t, buf.String(), "timed out")

	buf.Reset()
	HandleContextError(log, context.Background(), errors.New("x"), "timed out", "failed")
	assert.Contains(t, buf.String(), "failed")

	buf.Reset()
	HandleError(log, nil, "never")
	assert.Empty(t, buf.String())
}
