package save

import (
	"time"

	"github.com/agentstation/utc"
)

// Options is the configuration for writing artifacts.
type Options struct {
	timestamp utc.Time
}

// Timestamp returns the timestamp embedded in artifact filenames.
func (o *Options) Timestamp() utc.Time {
	return o.timestamp
}

// Defaults returns the default save options.
func Defaults() *Options {
	return &Options{
		timestamp: utc.Now(),
	}
}

// Apply applies the given options to the save options.
func (o *Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(o)
	}
	return *o
}

// Option is a function that configures save options.
type Option func(*Options)

// WithTimestamp pins the filename timestamp. Use it to make artifact names
// deterministic in tests and to group the artifacts of one run under a
// single timestamp.
func WithTimestamp(t time.Time) Option {
	return func(o *Options) {
		o.timestamp = utc.Time{Time: t.UTC()}
	}
}
