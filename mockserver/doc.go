// Package mockserver implements the cloud API in memory so that engines and
// the cloud client can be exercised without the real backend.
//
// Every route under /api/v2 requires a bearer token from Options.Tokens.
// Compile jobs and backtests are simulated: their state is derived from the
// time elapsed since creation against Options.CompileDuration and
// Options.BacktestDuration, and a completed backtest always reports the same
// synthetic statistics.
//
// Besides the API the server exposes /health, a root info document, a
// prometheus /metrics endpoint and /data/<path>.csv, which serves
// deterministic bars for links returned by data/read.
//
//	srv := mockserver.New(mockserver.DefaultOptions(), logger)
//	if err := srv.Run(ctx, ":5001"); err != nil {
//		log.Fatal(err)
//	}
package mockserver
