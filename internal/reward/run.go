package reward

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// EventSource streams events matching a filter until ctx ends. *sui.Subscriber satisfies it.
type EventSource interface {
	Run(ctx context.Context, filter sui.EventFilter, out chan<- sui.Event) error
}

// Run releases on every tick of interval until ctx is canceled. Pass errors are logged, not returned.
func Run(ctx context.Context, r *Releaser, interval time.Duration, log zerolog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Dur("interval", interval).Msg("reward releaser started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			releaseAndLog(ctx, r, log)
		}
	}
}

// Watch releases whenever a new claim event arrives. Bursts of events collapse into one pass.
func Watch(ctx context.Context, r *Releaser, src EventSource, eventType string, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan sui.Event, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- src.Run(ctx, sui.EventFilter{MoveEventType: eventType}, events)
	}()

	trigger := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				releaseAndLog(ctx, r, log)
			}
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case ev := <-events:
			log.Info().Str("sender", ev.Sender).Str("digest", ev.ID.TxDigest).Msg("claim event received")
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}
}

func releaseAndLog(ctx context.Context, r *Releaser, log zerolog.Logger) {
	if _, err := r.Release(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("release pass failed")
	}
}
