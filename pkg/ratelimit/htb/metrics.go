package htb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/htb/pkg/metrics"
)

// MetricsBucket wraps a Bucket with Prometheus metrics collection.
type MetricsBucket struct {
	bucket   *Bucket
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

var (
	_ Limiter                = (*MetricsBucket)(nil)
	_ Limiter                = (*Bucket)(nil)
	_ metrics.Instrumentable = (*MetricsBucket)(nil)
)

// NewWithMetrics wraps bucket and reports its activity to the default
// Prometheus registerer under the given name.
func NewWithMetrics(bucket *Bucket, name string) *MetricsBucket {
	return NewWithConfigAndMetrics(bucket, name, metrics.DefaultConfig())
}

// NewWithConfigAndMetrics wraps bucket using a custom metrics configuration.
// A disabled configuration yields a wrapper that only delegates.
func NewWithConfigAndMetrics(bucket *Bucket, name string, config metrics.Config) *MetricsBucket {
	mb := &MetricsBucket{
		bucket: bucket,
		name:   name,
	}
	_ = mb.EnableMetrics(config)
	return mb
}

// Bucket returns the wrapped bucket, for use as a parent of further buckets.
func (mb *MetricsBucket) Bucket() *Bucket {
	return mb.bucket
}

// Name returns the bucket_name label value.
func (mb *MetricsBucket) Name() string {
	return mb.name
}

// Take consumes amount tokens from the bucket and its ancestors.
func (mb *MetricsBucket) Take(amount float64) bool {
	reg := mb.activeRegistry()
	if reg == nil {
		return mb.bucket.Take(amount)
	}

	reg.Requests.WithLabelValues(mb.name).Add(positive(amount))

	ok, borrowed := mb.bucket.take(amount)
	mb.record(reg, amount, ok, borrowed)

	return ok
}

// Allow is shorthand for Take(1).
func (mb *MetricsBucket) Allow() bool {
	return mb.Take(1)
}

// Wait blocks until amount tokens are taken or ctx ends.
func (mb *MetricsBucket) Wait(ctx context.Context, amount float64) error {
	reg := mb.activeRegistry()
	if reg == nil {
		return mb.bucket.Wait(ctx, amount)
	}

	start := time.Now()
	reg.Requests.WithLabelValues(mb.name).Add(positive(amount))

	borrowed, err := mb.bucket.wait(ctx, amount)

	reg.WaitTime.WithLabelValues(mb.name).Observe(time.Since(start).Seconds())
	if err != nil {
		reg.WaitError.WithLabelValues(mb.name).Inc()
	}
	mb.record(reg, amount, err == nil, borrowed)

	return err
}

// BlockingTake blocks until amount tokens are taken.
func (mb *MetricsBucket) BlockingTake(amount float64) error {
	return mb.Wait(context.Background(), amount)
}

// Rate returns the configured rate.
func (mb *MetricsBucket) Rate() Limit {
	return mb.bucket.Rate()
}

// EffectiveRate returns the nearest non-zero rate up the chain.
func (mb *MetricsBucket) EffectiveRate() (Limit, error) {
	return mb.bucket.EffectiveRate()
}

// Capacity returns the maximum number of tokens the bucket can hold.
func (mb *MetricsBucket) Capacity() float64 {
	return mb.bucket.Capacity()
}

// Tokens returns the current balance and updates the tokens gauge.
func (mb *MetricsBucket) Tokens() float64 {
	tokens := mb.bucket.Tokens()

	if reg := mb.activeRegistry(); reg != nil {
		reg.Tokens.WithLabelValues(mb.name).Set(tokens)
	}

	return tokens
}

// EnableMetrics enables metrics collection. A nil Registry selects the
// default registry.
func (mb *MetricsBucket) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mb.registry.Store(metrics.RegistryFor(config.Registry))
	} else if mb.registry.Load() == nil {
		mb.registry.Store(metrics.DefaultRegistry())
	}

	mb.enabled.Store(config.Enabled)
	return nil
}

// DisableMetrics disables metrics collection.
func (mb *MetricsBucket) DisableMetrics() {
	mb.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mb *MetricsBucket) MetricsEnabled() bool {
	return mb.enabled.Load()
}

func (mb *MetricsBucket) activeRegistry() *metrics.Registry {
	if !mb.enabled.Load() {
		return nil
	}
	return mb.registry.Load()
}

func (mb *MetricsBucket) record(reg *metrics.Registry, amount float64, ok, borrowed bool) {
	n := positive(amount)

	if ok {
		reg.Allowed.WithLabelValues(mb.name).Add(n)
		if borrowed {
			reg.Borrowed.WithLabelValues(mb.name).Add(n)
		}
	} else {
		reg.Denied.WithLabelValues(mb.name).Add(n)
	}

	reg.Tokens.WithLabelValues(mb.name).Set(mb.bucket.Tokens())
}

// positive clamps amounts for counters, which panic on negative input.
func positive(amount float64) float64 {
	if amount > 0 {
		return amount
	}
	return 0
}
