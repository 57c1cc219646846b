// Package health runs named health checks concurrently under a per-check
// timeout and aggregates the verdicts into a Report.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("openai", func(ctx context.Context) error {
//	    return probe(ctx, "openai")
//	})
//	report := checker.Run(ctx)
//	fmt.Println(report.Status, report.Healthy())
//
// Checks never make Run fail: an error, a panic or a timeout marks that
// component unhealthy and the others are unaffected.
package health
