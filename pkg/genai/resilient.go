package genai

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/am-report-server/internal/domain"
)

// ResilientGenerator wraps a Generator with a circuit breaker so repeated
// backend failures fail fast instead of queueing behind long timeouts. It adds
// no retry: a rejected or failed call surfaces immediately.
type ResilientGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewResilientGenerator creates a circuit-broken generator
func NewResilientGenerator(inner Generator, logger *logrus.Logger) *ResilientGenerator {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GenerationBackend",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// Precondition violations are caller mistakes, not backend health.
			return err == nil || domain.IsArtifactCountError(err)
		},
	})

	return &ResilientGenerator{
		inner:   inner,
		breaker: breaker,
		logger:  logger,
	}
}

// Generate forwards the request through the circuit breaker
func (g *ResilientGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Generate(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", domain.NewBackendError(domain.BackendOther, err)
		}
		return "", err
	}

	return result.(string), nil
}
