package htb

import (
	"context"
	"math"
	"time"

	htberrors "github.com/vnykmshr/htb/pkg/common/errors"
)

// Take consumes amount tokens from this bucket and every ancestor.
//
// The request is admitted when this bucket holds at least amount tokens or,
// failing that, when some ancestor does. An admitted request is charged to
// the whole chain regardless of which bucket covered it, so balances may go
// negative. A denied request changes nothing beyond refilling the chain.
// Non-positive amounts are always admitted and charge nothing.
func (b *Bucket) Take(amount float64) bool {
	ok, _ := b.take(amount)
	return ok
}

// Allow is shorthand for Take(1).
func (b *Bucket) Allow() bool {
	return b.Take(1)
}

// Wait blocks until amount tokens are taken, ctx ends, or the hierarchy
// turns out to have no rate at all.
//
// After each denied attempt it sleeps amount/EffectiveRate(). When the
// bottleneck is an ancestor with a smaller rate the sleep is too short and
// the loop simply tries again.
func (b *Bucket) Wait(ctx context.Context, amount float64) error {
	_, err := b.wait(ctx, amount)
	return err
}

// BlockingTake blocks until amount tokens are taken. It only returns early
// with ErrNoRate when every bucket in the chain has a zero rate.
func (b *Bucket) BlockingTake(amount float64) error {
	return b.Wait(context.Background(), amount)
}

// Rate returns the configured rate.
func (b *Bucket) Rate() Limit {
	return b.rate
}

// EffectiveRate returns this bucket's rate if it is non-zero, otherwise the
// rate of the nearest ancestor with a non-zero rate. It returns ErrNoRate if
// there is none.
func (b *Bucket) EffectiveRate() (Limit, error) {
	for _, n := range b.chain {
		if n.rate != 0 {
			return n.rate, nil
		}
	}
	return 0, htberrors.ErrNoRate
}

// Capacity returns the maximum number of tokens the bucket can hold.
func (b *Bucket) Capacity() float64 {
	return b.capacity
}

// Parent returns the parent bucket, or nil for a root.
func (b *Bucket) Parent() *Bucket {
	return b.parent
}

// Root returns the topmost ancestor, or b itself for a root.
func (b *Bucket) Root() *Bucket {
	return b.chain[len(b.chain)-1]
}

// Depth returns the number of ancestors above b.
func (b *Bucket) Depth() int {
	return len(b.chain) - 1
}

// Tokens refills the chain and returns this bucket's balance.
func (b *Bucket) Tokens() float64 {
	now := b.clock.Now()

	b.lockChain()
	defer b.unlockChain()

	b.replenish(now)
	return b.tokens
}

func (b *Bucket) take(amount float64) (ok, borrowed bool) {
	now := b.clock.Now()

	b.lockChain()
	defer b.unlockChain()

	b.replenish(now)

	if amount <= 0 {
		return true, false
	}
	if !b.canTake(amount) {
		return false, false
	}

	borrowed = b.tokens < amount
	b.account(amount)
	return true, borrowed
}

// wait reports whether the final, successful take was borrowed.
func (b *Bucket) wait(ctx context.Context, amount float64) (bool, error) {
	if amount > b.maxCapacity() {
		b.logger.Warn("request exceeds every capacity in the hierarchy and can never be admitted",
			"amount", amount,
			"capacity", b.capacity,
			"depth", b.Depth())
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if ok, borrowed := b.take(amount); ok {
			return borrowed, nil
		}

		rate, err := b.EffectiveRate()
		if err != nil {
			return false, err
		}

		delay := time.Duration(amount / float64(rate) * float64(time.Second))
		b.logger.Debug("waiting for tokens",
			"amount", amount,
			"rate", float64(rate),
			"delay", delay)

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-b.clock.After(delay):
		}
	}
}

func (b *Bucket) maxCapacity() float64 {
	highest := math.Inf(-1)
	for _, n := range b.chain {
		highest = math.Max(highest, n.capacity)
	}
	return highest
}

// lockChain locks from this bucket toward the root. Every multi-bucket
// operation locks in this order, which keeps concurrent callers on
// different buckets from deadlocking on a shared ancestor.
func (b *Bucket) lockChain() {
	for _, n := range b.chain {
		n.mu.Lock()
	}
}

func (b *Bucket) unlockChain() {
	for i := len(b.chain) - 1; i >= 0; i-- {
		b.chain[i].mu.Unlock()
	}
}

// The helpers below require the chain to be locked.

// replenish refills every bucket in the chain, root first, using one
// timestamp. Each bucket measures elapsed time from its own last update.
func (b *Bucket) replenish(now time.Time) {
	for i := len(b.chain) - 1; i >= 0; i-- {
		b.chain[i].refill(now)
	}
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastUpdate)
	if elapsed <= 0 {
		return
	}

	b.tokens = math.Min(b.capacity, b.tokens+float64(b.rate)*elapsed.Seconds())
	b.lastUpdate = now
}

// canTake is all-or-nothing at each bucket: a short balance defers the
// whole amount to the parent.
func (b *Bucket) canTake(amount float64) bool {
	for _, n := range b.chain {
		if n.tokens >= amount {
			return true
		}
	}
	return false
}

// account charges amount to every bucket in the chain. There is no floor.
func (b *Bucket) account(amount float64) {
	for _, n := range b.chain {
		n.tokens -= amount
	}
}
