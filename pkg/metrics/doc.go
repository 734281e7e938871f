// Package metrics provides Prometheus instrumentation for htb buckets.
//
// Instrumentation is opt-in: the core bucket type carries no metrics code and
// is wrapped by htb.MetricsBucket when collection is wanted.
//
// # Quick Start
//
//	root := htb.New(1000, nil)
//	api := htb.NewWithMetrics(htb.New(300, root), "api")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	api := htb.NewWithConfigAndMetrics(bucket, "api", metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	})
//
// # Available Metrics
//
//   - htb_ratelimit_requests_total: tokens requested
//   - htb_ratelimit_allowed_total: tokens admitted
//   - htb_ratelimit_denied_total: tokens denied
//   - htb_ratelimit_borrowed_total: tokens admitted while the bucket's own balance was short
//   - htb_ratelimit_wait_duration_seconds: time spent in Wait
//   - htb_ratelimit_wait_errors_total: waits that returned an error
//   - htb_ratelimit_tokens_available: current balance, negative while repaying borrowed tokens
//
// Every metric carries a bucket_name label.
package metrics
