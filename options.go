//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import "github.com/joeycumines/logiface"

// LoopOption configures a Loop at construction time.
type LoopOption func(*loopConfig)

type loopConfig struct {
	logger     *logiface.Logger[logiface.Event]
	metrics    *Metrics
	bufferSize int
}

// defaultBufferSize is the batch size used when WithBufferSize is omitted
// or given a non-positive value.
const defaultBufferSize = 256

func resolveOptions(opts []LoopOption) loopConfig {
	cfg := loopConfig{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize <= 0 {
		cfg.bufferSize = defaultBufferSize
	}
	return cfg
}

// WithBufferSize sets the capacity of the batch the backend's wait call
// returns ready events into. Larger values amortize repoll overhead under
// heavy fan-in at the cost of more per-loop memory; smaller values return
// control to the timer/idle/prepare phases more often.
func WithBufferSize(n int) LoopOption {
	return func(c *loopConfig) { c.bufferSize = n }
}

// WithLogger attaches a structured logger the loop uses to report backend
// errors it cannot otherwise surface to a caller (a failed backend removal
// during the flush phase, for instance, has no request to fail). A nil logger (the
// default) silently drops these; logiface.Logger itself tolerates a nil
// receiver, so passing nil explicitly is also safe.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return func(c *loopConfig) { c.logger = logger }
}

// WithMetrics attaches a Metrics sink the loop updates as it runs. See
// metrics.go.
func WithMetrics(m *Metrics) LoopOption {
	return func(c *loopConfig) { c.metrics = m }
}
