package config

import (
	"fmt"
	"time"

	rcerrors "github.com/docsmith/renderci/internal/errors"
)

// Validate fails fast on the first invalid setting and canonicalizes typed
// enum fields. Later stages rely on a validated config and do not re-check.
func (c *Config) Validate() error {
	if len(c.PatternList()) == 0 {
		return rcerrors.ValidationFailed("at least one glob pattern is required")
	}
	if c.OutputDir == "" {
		return rcerrors.ValidationFailed("output directory is required")
	}
	if _, err := c.FormatList(); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return rcerrors.ValidationFailed(fmt.Sprintf("concurrency must be >= 0, got %d", c.Concurrency))
	}

	if c.Install.MaxRetries < 0 {
		return rcerrors.ValidationFailed(fmt.Sprintf("install.max_retries must be >= 0, got %d", c.Install.MaxRetries))
	}
	mode := NormalizeRetryBackoff(string(c.Install.RetryBackoff))
	if mode == "" {
		return rcerrors.ValidationFailed(fmt.Sprintf("unknown install.retry_backoff %q (use fixed, linear or exponential)", c.Install.RetryBackoff))
	}
	c.Install.RetryBackoff = mode
	for _, d := range []struct {
		name, value string
	}{
		{"install.retry_initial_delay", c.Install.RetryInitialDelay},
		{"install.retry_max_delay", c.Install.RetryMaxDelay},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return rcerrors.ValidationFailed(fmt.Sprintf("%s: invalid duration %q", d.name, d.value))
		}
	}

	if c.Source != nil {
		if c.Source.URL == "" {
			return rcerrors.ValidationFailed("source.url is required when a source block is present")
		}
		if c.Source.Auth != nil {
			switch c.Source.Auth.Type {
			case "ssh", "token", "basic":
			default:
				return rcerrors.ValidationFailed(fmt.Sprintf("unknown source.auth.type %q (use ssh, token or basic)", c.Source.Auth.Type))
			}
		}
	}

	if c.History.Keep < 0 {
		return rcerrors.ValidationFailed(fmt.Sprintf("history.keep must be >= 0, got %d", c.History.Keep))
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return rcerrors.ValidationFailed(fmt.Sprintf("watch.debounce: invalid duration %q", c.Watch.Debounce))
	}
	if c.Watch.Schedule != "" {
		if _, err := time.ParseDuration(c.Watch.Schedule); err != nil {
			return rcerrors.ValidationFailed(fmt.Sprintf("watch.schedule: invalid duration %q", c.Watch.Schedule))
		}
	}
	return nil
}

// InstallRetryDelays returns the parsed retry delay bounds. Validate must
// have succeeded first.
func (c *Config) InstallRetryDelays() (initial, max time.Duration) {
	initial, _ = time.ParseDuration(c.Install.RetryInitialDelay)
	max, _ = time.ParseDuration(c.Install.RetryMaxDelay)
	return initial, max
}

// WatchDebounce returns the parsed debounce interval. Validate must have
// succeeded first.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// WatchSchedule returns the periodic full-rescan interval, zero when
// disabled. Validate must have succeeded first.
func (c *Config) WatchSchedule() time.Duration {
	if c.Watch.Schedule == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Watch.Schedule)
	return d
}
