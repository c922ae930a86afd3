package routing

import (
	"fmt"
	"time"
)

// Config defines the reassignment policy settings.
type Config struct {
	// ResponseTimeoutMinutes bounds how long a vendor may take to acknowledge
	// a pending assignment.
	ResponseTimeoutMinutes int `json:"response_timeout_minutes"`
	// MaxAttempts caps the number of routing attempts per order before the
	// order escalates to manual handling.
	MaxAttempts int `json:"max_attempts"`
	// NotifyAdminAfterAttempts is the attempt number from which retries also
	// alert an administrator.
	NotifyAdminAfterAttempts int `json:"notify_admin_after_attempts"`
	// SweepIntervalSeconds is the period of the timeout sweep run by the
	// service wrapper.
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ResponseTimeoutMinutes == 0 {
		c.ResponseTimeoutMinutes = 30
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.NotifyAdminAfterAttempts == 0 {
		c.NotifyAdminAfterAttempts = 2
	}
	if c.SweepIntervalSeconds == 0 {
		c.SweepIntervalSeconds = 60
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.ResponseTimeoutMinutes <= 0 {
		return fmt.Errorf("routing: response_timeout_minutes must be positive, got %d", c.ResponseTimeoutMinutes)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("routing: max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.NotifyAdminAfterAttempts < 1 {
		return fmt.Errorf("routing: notify_admin_after_attempts must be at least 1, got %d", c.NotifyAdminAfterAttempts)
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("routing: sweep_interval_seconds must be positive, got %d", c.SweepIntervalSeconds)
	}
	return nil
}

// ResponseTimeout returns the acknowledgement window as a duration.
func (c Config) ResponseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutMinutes) * time.Minute
}

// SweepInterval returns the sweep period as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
