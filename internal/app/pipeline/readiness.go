package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appconfig "audio2json/internal/app/config"
	apperrors "audio2json/internal/app/errors"
	"audio2json/internal/app/model"
)

// PollPolicy bounds the wait for uploaded assets to become ready. The delay
// between polls starts at Interval and grows by Multiplier up to MaxInterval.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration
}

func PollPolicyFromConfig(c appconfig.PollingConfig) PollPolicy {
	return PollPolicy{
		Interval:    c.Interval,
		MaxInterval: c.MaxInterval,
		Multiplier:  c.Multiplier,
		Timeout:     c.Timeout,
	}
}

func (p PollPolicy) next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if p.MaxInterval > 0 && next > p.MaxInterval {
		next = p.MaxInterval
	}
	if next < current {
		return current
	}
	return next
}

type assetGetter interface {
	GetAsset(ctx context.Context, name string) (model.Asset, error)
}

// Poller waits for remote assets to leave the pending state.
type Poller struct {
	service assetGetter
	policy  PollPolicy
	logger  *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPoller(service assetGetter, policy PollPolicy, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		service: service,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// WaitForAssets blocks until every asset is ACTIVE and returns the refreshed
// handles. A FAILED asset yields ErrProcessingFailed; running past the policy
// timeout yields ErrPollTimeout. The timeout covers all assets together.
func (p *Poller) WaitForAssets(ctx context.Context, assets []model.Asset) ([]model.Asset, error) {
	deadline := p.now().Add(p.policy.Timeout)
	ready := make([]model.Asset, 0, len(assets))

	for _, asset := range assets {
		refreshed, err := p.waitForAsset(ctx, asset, deadline)
		if err != nil {
			return nil, err
		}
		ready = append(ready, refreshed)
	}

	return ready, nil
}

func (p *Poller) waitForAsset(ctx context.Context, asset model.Asset, deadline time.Time) (model.Asset, error) {
	interval := p.policy.Interval
	polls := 0

	for {
		switch {
		case asset.IsReady():
			p.logger.Debug("Asset ready", zap.String("asset", asset.Name), zap.Int("polls", polls))
			return asset, nil
		case asset.IsFailed():
			return model.Asset{}, apperrors.WithKind(apperrors.ErrProcessingFailed,
				fmt.Errorf("asset %s: %s", asset.Name, asset.Error))
		}

		remaining := deadline.Sub(p.now())
		if remaining <= 0 {
			operation := fmt.Sprintf("waiting for asset %s (still %s)", asset.Name, asset.State)
			return model.Asset{}, apperrors.WithKind(apperrors.ErrPollTimeout,
				apperrors.Timeout(operation, p.policy.Timeout.String()))
		}

		wait := interval
		if wait > remaining {
			wait = remaining
		}
		if err := p.sleep(ctx, wait); err != nil {
			return model.Asset{}, err
		}
		interval = p.policy.next(interval)

		refreshed, err := p.service.GetAsset(ctx, asset.Name)
		if err != nil {
			return model.Asset{}, fmt.Errorf("failed to poll asset %s: %w", asset.Name, err)
		}
		asset = refreshed
		polls++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
