package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// One initial attempt plus three retries.
	defaultAttempts = 4
	defaultDelay    = time.Second
	defaultMaxDelay = 10 * time.Second
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"4"`
	Delay    time.Duration `env:"DELAY" envDefault:"1s"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"10s"`
}

// ToRetryOptions maps the config onto retry-go options with exponential
// backoff: delay = min(Delay * 2^attempt, MaxDelay).
func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
