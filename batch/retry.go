package batch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/neura-neura/sp0t-dl-tg/must"
)

var ErrDeliveryTimeout = errors.New("delivery timed out")

// DeliveryBackoff waits initial, then doubles, for at most attempts tries.
func DeliveryBackoff(initial time.Duration, attempts int) retry.Backoff {
	must.Be(attempts >= 1, "delivery needs at least one attempt")

	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(initial)) //nolint:gosec
}

func isDeliveryTimeout(err error) bool {
	return errors.Is(err, ErrDeliveryTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// deliverWithRetry retries deliver on the timeout class of errors only.
func deliverWithRetry(ctx context.Context, logger zerolog.Logger, b retry.Backoff, deliver func(ctx context.Context) error) error {
	attempt := 0

	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := deliver(ctx); nil != err {
			if isDeliveryTimeout(err) && nil == ctx.Err() {
				logger.Warn().Err(err).Int("attempt", attempt).Msg("Delivery timed out, retrying")
				return retry.RetryableError(err)
			}

			return err
		}

		return nil
	})
}
