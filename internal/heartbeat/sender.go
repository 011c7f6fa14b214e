// Package heartbeat delivers the periodic is-alive signal.
package heartbeat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/api"
)

// API is the slice of the control-plane client a heartbeat needs.
type API interface {
	Heartbeat(ctx context.Context, ip string) error
}

// IPResolver discovers the node's current public IP.
type IPResolver interface {
	Resolve(ctx context.Context) (string, error)
}

type Sender struct {
	Logger     *zap.Logger
	API        API
	Resolver   IPResolver
	MaxRetries int
	RetryDelay time.Duration
}

func NewSender(logger *zap.Logger, client API, resolver IPResolver, maxRetries int, retryDelay time.Duration) *Sender {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Sender{
		Logger:     logger,
		API:        client,
		Resolver:   resolver,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	}
}

// Send resolves the public IP and delivers one heartbeat, retrying transient
// failures up to MaxRetries within this firing. Returns true only when the
// service acknowledged the heartbeat.
//
// An IP-resolution failure abandons the firing without consuming any retry
// budget; a 429 stops the series immediately since hammering a rate limiter
// just extends the penalty.
func (s *Sender) Send(ctx context.Context) bool {
	ip, err := s.Resolver.Resolve(ctx)
	if err != nil {
		s.Logger.Warn("heartbeat_ip_unavailable", zap.Error(err))
		return false
	}

	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		err := s.API.Heartbeat(ctx, ip)
		if err == nil {
			s.Logger.Info("heartbeat_sent",
				zap.String("ip", ip),
				zap.Int("attempt", attempt),
			)
			return true
		}
		if errors.Is(err, api.ErrRateLimited) {
			s.Logger.Warn("heartbeat_rate_limited", zap.String("ip", ip))
			return false
		}
		s.Logger.Warn("heartbeat_attempt_failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", s.MaxRetries),
			zap.Error(err),
		)
		if attempt < s.MaxRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.RetryDelay):
			}
		}
	}

	s.Logger.Error("heartbeat_retries_exhausted", zap.String("ip", ip))
	return false
}
