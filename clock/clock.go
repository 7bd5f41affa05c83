package clock

import "time"

// Clock provides wall-clock time for audit records. Implementations may
// correct for system clock drift (e.g. via NTP).
type Clock interface {
	Now() time.Time
}

// Config selects the clock implementation. An empty NTPServer uses the
// plain system clock.
type Config struct {
	NTPServer string `yaml:"ntp_server"`
}

// New builds a Clock from configuration.
func New(cfg Config, log Logger) Clock {
	if cfg.NTPServer == "" {
		return System()
	}
	return NewNTP(WithServer(cfg.NTPServer), WithLogger(log))
}

// System returns a Clock backed by time.Now().
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
