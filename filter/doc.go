// Package filter selects cloud records with expr-lang expressions.
//
// Each record kind has its own environment:
//
//   - projects: ID, Name, Language, Description, Created, Modified
//   - backtests: ID, Name, Note, Completed, Progress, Failed, Trades,
//     WinRate, NetProfit, Sharpe, Created
//   - live algorithms: ID, ProjectID, Status, Running, Brokerage,
//     ServerType, Launched, Stopped
//
// The full record is also available as Project, Backtest or Live. Every
// environment offers the case-insensitive helpers hasText, hasPrefix and
// hasSuffix, next to lower, upper, daysSince, daysAgo and now. The
// case-sensitive contains, startsWith and endsWith are expr operators:
//
//	Name contains "Momentum" and hasSuffix(Name, "strategy")
//
//	f, err := filter.CompileBacktestFilter(`Completed and Sharpe > 1 and daysSince(Created) < 30`)
//	if err != nil {
//		return err
//	}
//	good, err := filter.Apply(ctx, filter.NewEvaluator(), f, backtests)
package filter
