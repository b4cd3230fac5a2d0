package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Janitor deletes expired refresh tokens, codes and denylist entries.
type Janitor struct {
	refreshTokens refreshTokenStore
	verifications codeStore
	resets        codeStore
	denylist      denylistStore
	now           func() time.Time
}

func NewJanitor(refreshTokens refreshTokenStore, verifications codeStore, resets codeStore, denylist denylistStore) *Janitor {
	return &Janitor{
		refreshTokens: refreshTokens,
		verifications: verifications,
		resets:        resets,
		denylist:      denylist,
		now:           time.Now,
	}
}

func (j *Janitor) Sweep(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	refresh, err := j.refreshTokens.CleanExpired(ctx, now)
	errs = append(errs, err)
	verifications, err := j.verifications.CleanExpired(ctx, now)
	errs = append(errs, err)
	resets, err := j.resets.CleanExpired(ctx, now)
	errs = append(errs, err)
	denied, err := j.denylist.CleanExpired(ctx, now)
	errs = append(errs, err)

	if total := refresh + verifications + resets + denied; total > 0 {
		slog.Info("expired credentials removed",
			"refresh_tokens", refresh, "verification_codes", verifications,
			"reset_codes", resets, "invalidated_tokens", denied)
	}

	return errors.Join(errs...)
}

// StartCleanupTicker sweeps every interval until ctx is done. A non-positive
// interval disables it.
func (j *Janitor) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("credential cleanup disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Sweep(ctx); err != nil {
				slog.Warn("credential cleanup failed", "error", err)
			}
		}
	}
}
