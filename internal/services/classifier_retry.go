package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Errors a remote classification provider may return
var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierTimeout     = errors.New("classifier timeout")
)

// RetryConfig configures retry behavior for classification calls
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled" yaml:"jitter_enabled"`
}

// DefaultRetryConfig returns the retry settings used for remote classifiers
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// IsRetryableClassifierError reports whether a failed classification is worth repeating
func IsRetryableClassifierError(err error) bool {
	return errors.Is(err, ErrClassifierUnavailable) || errors.Is(err, ErrClassifierTimeout)
}

// withRetry runs op until it succeeds, fails permanently, or attempts run out
func withRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts || !IsRetryableClassifierError(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.calculateDelay(attempt)):
		}
	}

	return lastErr
}

// calculateDelay is initial_delay * backoff_factor^(attempt-1), capped at MaxDelay
func (c *RetryConfig) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay
	}

	return time.Duration(delay)
}

// RetryingClassifier wraps a remote classifier with retries and a local fallback
type RetryingClassifier struct {
	primary  ItemClassifier
	fallback ItemClassifier
	config   *RetryConfig
	logger   *logrus.Logger
}

// NewRetryingClassifier creates a classifier that retries primary and, when it keeps
// failing, answers from fallback. A nil fallback uses keyword classification.
func NewRetryingClassifier(primary, fallback ItemClassifier, config *RetryConfig, logger *logrus.Logger) *RetryingClassifier {
	if fallback == nil {
		fallback = NewKeywordClassifier()
	}
	if config == nil {
		config = DefaultRetryConfig()
	}
	normalized := *config
	if normalized.MaxAttempts < 1 {
		normalized.MaxAttempts = 1
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &RetryingClassifier{
		primary:  primary,
		fallback: fallback,
		config:   &normalized,
		logger:   logger,
	}
}

// Classify implements ItemClassifier
func (c *RetryingClassifier) Classify(ctx context.Context, description string) (*Classification, error) {
	var result *Classification
	err := withRetry(ctx, c.config, func(ctx context.Context) error {
		classification, err := c.primary.Classify(ctx, description)
		if err != nil {
			return err
		}
		result = classification
		return nil
	})
	if err == nil {
		return result, nil
	}

	// caller cancellation and bad input are not provider outages
	if ctx.Err() != nil || !IsRetryableClassifierError(err) {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"attempts": c.config.MaxAttempts,
		"error":    err.Error(),
	}).Warn("Classifier unavailable, using fallback")

	return c.fallback.Classify(ctx, description)
}
