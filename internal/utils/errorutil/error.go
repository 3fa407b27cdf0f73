package errorutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// HandleError logs err at Error level when it is not nil.
func HandleError(log zerolog.Logger, err error, msg string) {
	if err != nil {
		log.Error().Err(err).Msg(msg)
	}
}

// HandleContextError logs a cancelled or timed out ctx with timeoutMsg and
// anything else with errorMsg.
func HandleContextError(log zerolog.Logger, ctx context.Context, err error, timeoutMsg, errorMsg string) {
	if err == nil {
		return
	}
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
		log.Error().Err(err).Msg(timeoutMsg)
		return
	}
	log.Error().Err(err).Msg(errorMsg)
}

// WrapError wraps an error with additional context
func WrapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
