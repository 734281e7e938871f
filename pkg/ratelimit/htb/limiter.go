package htb

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vnykmshr/htb/pkg/common/validation"
)

// Limit is the number of tokens a bucket generates per second.
// A zero Limit defers to the nearest ancestor with a non-zero Limit
// wherever a rate is needed.
type Limit float64

// Limiter is the operation set shared by *Bucket and *MetricsBucket.
type Limiter interface {
	// Take consumes amount tokens if the bucket or one of its ancestors
	// can cover them. It does not block.
	Take(amount float64) bool

	// Allow is shorthand for Take(1).
	Allow() bool

	// Wait blocks until amount tokens are taken or ctx ends.
	Wait(ctx context.Context, amount float64) error

	// BlockingTake blocks until amount tokens are taken.
	BlockingTake(amount float64) error

	// Rate returns the configured rate.
	Rate() Limit

	// EffectiveRate returns the rate of the nearest bucket, starting with
	// this one, that has a non-zero rate.
	EffectiveRate() (Limit, error)

	// Capacity returns the maximum token balance.
	Capacity() float64

	// Tokens returns the current balance, which is negative while the
	// bucket repays borrowed tokens.
	Tokens() float64
}

// Clock provides the current time and timed waits. It can be mocked for testing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// After waits for d on the system clock.
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Config holds configuration options for creating a new Bucket.
type Config struct {
	// Rate is the number of tokens added per second. It is also the
	// bucket capacity.
	Rate Limit

	// Parent is charged for every token taken from this bucket.
	// Nil makes the bucket a root.
	Parent *Bucket

	// Clock provides the current time. If nil, the parent's clock is used,
	// or SystemClock for a root.
	Clock Clock

	// Logger receives wait diagnostics. If nil, the parent's logger is used,
	// or a logger that discards everything for a root.
	Logger *slog.Logger
}

// Bucket is one node of a hierarchical token bucket.
//
// Every token taken from a bucket is also taken from each of its ancestors,
// so a parent's rate caps the combined consumption of its subtree. A bucket
// whose own balance is short is still admitted when an ancestor has the
// tokens; its balance then goes negative and recovers at its own rate.
type Bucket struct {
	mu         sync.Mutex
	rate       Limit
	capacity   float64
	tokens     float64
	lastUpdate time.Time

	parent *Bucket
	// chain holds this bucket followed by every ancestor up to the root.
	// Locks are always taken in chain order.
	chain []*Bucket

	clock  Clock
	logger *slog.Logger
}

// New creates a bucket holding rate tokens and refilling at rate tokens
// per second. The rate is not validated; use NewSafe to reject bad input.
func New(rate Limit, parent *Bucket) *Bucket {
	return newBucket(Config{Rate: rate, Parent: parent})
}

// NewSafe creates a bucket with validation that returns an error instead of
// accepting a negative or non-finite rate.
func NewSafe(rate Limit, parent *Bucket) (*Bucket, error) {
	return NewWithConfigSafe(Config{Rate: rate, Parent: parent})
}

// NewWithConfigSafe creates a bucket from config with validation.
func NewWithConfigSafe(config Config) (*Bucket, error) {
	if err := validation.ValidateRate("htb", float64(config.Rate)); err != nil {
		return nil, err
	}
	return newBucket(config), nil
}

func newBucket(config Config) *Bucket {
	parent := config.Parent

	if config.Clock == nil {
		if parent != nil {
			config.Clock = parent.clock
		} else {
			config.Clock = SystemClock{}
		}
	}
	if config.Logger == nil {
		if parent != nil {
			config.Logger = parent.logger
		} else {
			config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}

	b := &Bucket{
		rate:       config.Rate,
		capacity:   float64(config.Rate),
		tokens:     float64(config.Rate),
		lastUpdate: config.Clock.Now(),
		parent:     parent,
		clock:      config.Clock,
		logger:     config.Logger,
	}

	b.chain = []*Bucket{b}
	if parent != nil {
		b.chain = append(b.chain, parent.chain...)
	}

	return b
}
