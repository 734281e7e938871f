/*
Package ratelimit provides rate limiting primitives for Go applications.

The htb subpackage implements a hierarchical token bucket:

	root := htb.New(1000, nil)    // 1000 tokens/sec shared by all children
	api := htb.New(300, root)     // 300 tokens/sec guaranteed to api
	batch := htb.New(600, root)   // 600 tokens/sec guaranteed to batch

	if api.Take(1) {
		// Process request
	}

Each bucket refills at its own rate and is capped at that rate. A take is
charged to the bucket and to every ancestor, so a parent limits the combined
rate of its subtree, and a child may borrow tokens its ancestors are not
using.

Buckets support:
  - Non-blocking admission (Take/Allow)
  - Context-aware blocking (Wait) and unconditional blocking (BlockingTake)
  - Zero-rate buckets that inherit their nearest ancestor's rate
  - Optional Prometheus instrumentation (MetricsBucket)

All buckets are safe for concurrent use.
*/
package ratelimit
