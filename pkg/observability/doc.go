/*
Package observability turns engine lifecycle hooks into logs and Prometheus metrics.

Hooks from several sources can be chained with Combine:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	eng, _ := lattice.New(lattice.WithLifecycleHooks(hooks))
*/
package observability
