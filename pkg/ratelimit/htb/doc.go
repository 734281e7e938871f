/*
Package htb provides a hierarchical token bucket rate limiter.

Buckets form a tree through an optional parent given at construction. Each
bucket refills at its own rate up to a capacity equal to that rate, and every
token taken from a bucket is also taken from each of its ancestors. A large
rate at the root can therefore be split among children while the root still
caps their combined consumption.

Basic usage:

	root := htb.New(1000, nil)      // 1000 tokens per second for everyone
	api := htb.New(300, root)       // api is guaranteed 300/s
	batch := htb.New(600, root)     // batch is guaranteed 600/s

	if api.Take(10) {
		// handle request
	}

	if err := batch.Wait(ctx, 200); err != nil {
		return err
	}

Borrowing:

A bucket whose own balance is short is still admitted when an ancestor holds
the requested amount. The whole chain is charged, so the child's balance goes
negative and it has to refill at its own rate before it is admitted on its own
balance again. While the ancestors have spare capacity an idle sibling's share
is available to whoever asks; once they run dry every bucket falls back to its
own rate.

Zero rates:

A bucket created with rate 0 holds no tokens of its own and lives entirely on
its ancestors. EffectiveRate resolves such a bucket to the nearest ancestor
with a non-zero rate and returns ErrNoRate when there is none. Wait uses the
effective rate to size its sleeps.

Concurrency:

All methods are safe for concurrent use. Each bucket has its own mutex; an
operation locks the invoked bucket and then each ancestor in turn up to the
root, so two operations never acquire a shared pair of locks in opposite
order. The tree cannot be reshaped after construction.

Declarative trees:

NewTree builds a named hierarchy from a flat list and reports parents whose
children are promised more than the parent's rate:

	tree, err := htb.NewTree([]htb.NodeSpec{
		{Name: "root", Rate: 1000},
		{Name: "api", Parent: "root", Rate: 300},
		{Name: "batch", Parent: "root", Rate: 600},
	})

Time:

Buckets read time through the Clock interface so tests can drive refills
without sleeping. Children use their parent's clock unless told otherwise.
*/
package htb
