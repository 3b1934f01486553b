package client

import (
	"log/slog"

	"signupgate/internal/platform/config"
	"signupgate/internal/signup/metrics"
	"signupgate/pkg/platform/circuit"
)

// NewFromConfig builds a client with its breaker from the backend config.
func NewFromConfig(cfg config.Backend, logger *slog.Logger, m *metrics.Metrics) *Client {
	breaker := circuit.New("signup-backend",
		circuit.WithFailureThreshold(cfg.Breaker.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Breaker.SuccessThreshold),
		circuit.WithCooldown(cfg.Breaker.Cooldown),
	)
	return New(cfg.BaseURL,
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
		WithMetrics(m),
		WithBreaker(breaker),
		WithLegacyMessages(cfg.LegacySentMessage, cfg.LegacyVerifiedMessage),
	)
}
