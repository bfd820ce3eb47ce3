package servers

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// RunThenClose blocks on run and only then releases the closables, so servers
// have drained before shared resources go away.
func RunThenClose(ctx context.Context, run func() error, closables ...Closable) error {
	runErr := run()

	var errs []error
	for _, closable := range closables {
		errs = append(errs, closable.Close())
	}

	closeErr := errors.Join(errs...)
	if closeErr != nil {
		log.Ctx(ctx).Error().Str("stage", "shut down").Err(closeErr).Msg("failed to close resources")
	}

	return errors.Join(runErr, closeErr)
}
