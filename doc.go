/*
Package htb provides a hierarchical token bucket rate limiter for Go.

Rate Limiting (pkg/ratelimit):
  - htb: Tree of token buckets where every take is charged up to the root

Support packages:
  - metrics: Prometheus collectors for wrapped buckets
  - common/errors: Shared error values and validation errors
  - common/validation: Parameter checks used by constructors

Example usage:

	import "github.com/vnykmshr/htb/pkg/ratelimit/htb"

	root := htb.New(1000, nil)     // 1000 tokens/s for the whole tree
	api := htb.New(300, root)      // api may use 300/s, more when root is idle

	if api.Take(1) {
		handle(request)
	}
*/
package htb
