package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/cloudbridge/cloud"
)

// DefaultCacheSize is the number of programs kept by the package compiler
const DefaultCacheSize = 100

const (
	kindProject  = "project"
	kindBacktest = "backtest"
	kindLive     = "live"
)

var defaultCompiler = NewCompiler(WithCache(DefaultCacheSize))

// CompileProjectFilter compiles an expression over projects
func CompileProjectFilter(expression string) (Filter[cloud.Project], error) {
	return defaultCompiler.Projects(expression)
}

// CompileBacktestFilter compiles an expression over backtests
func CompileBacktestFilter(expression string) (Filter[cloud.Backtest], error) {
	return defaultCompiler.Backtests(expression)
}

// CompileLiveFilter compiles an expression over live algorithms
func CompileLiveFilter(expression string) (Filter[cloud.LiveAlgorithm], error) {
	return defaultCompiler.LiveAlgorithms(expression)
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables program caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newProgramCache(size)
		}
	}
}

// WithCustomFunctions adds helper functions available to every expression
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler compiles expressions over cloud records. Expressions are type
// checked against the record environment, so unknown fields fail at
// compile time.
type Compiler struct {
	helperFuncs map[string]any
	cache       *programCache
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Projects compiles an expression over projects
func (c *Compiler) Projects(expression string) (Filter[cloud.Project], error) {
	return compile(c, kindProject, expression, projectEnv)
}

// Backtests compiles an expression over backtests
func (c *Compiler) Backtests(expression string) (Filter[cloud.Backtest], error) {
	return compile(c, kindBacktest, expression, backtestEnv)
}

// LiveAlgorithms compiles an expression over live algorithms
func (c *Compiler) LiveAlgorithms(expression string) (Filter[cloud.LiveAlgorithm], error) {
	return compile(c, kindLive, expression, liveEnv)
}

// Clear removes all cached programs
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached programs
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

func (c *Compiler) environment(record map[string]any) map[string]any {
	env := make(map[string]any, len(c.helperFuncs)+len(record))
	maps.Copy(env, c.helperFuncs)
	maps.Copy(env, record)
	return env
}

func compile[T any](c *Compiler, kind, expression string, recordEnv func(T) map[string]any) (Filter[T], error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Kind:       kind,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	key := kind + ":" + expression
	var program *vm.Program
	if c.cache != nil {
		program, _ = c.cache.Get(key)
	}

	if program == nil {
		var zero T
		compiled, err := expr.Compile(expression,
			expr.Env(c.environment(recordEnv(zero))),
			expr.AsBool(),
		)
		if err != nil {
			return nil, newCompilationError(kind, expression, err)
		}
		program = compiled

		if c.cache != nil {
			c.cache.Put(key, program)
		}
	}

	return &exprFilter[T]{
		kind:       kind,
		expression: expression,
		program:    program,
		env: func(record T) map[string]any {
			return c.environment(recordEnv(record))
		},
	}, nil
}

// exprFilter implements Filter using the expr language
type exprFilter[T any] struct {
	kind       string
	expression string
	program    *vm.Program
	env        func(T) map[string]any
}

// Evaluate evaluates the filter against a record
func (f *exprFilter[T]) Evaluate(record T) bool {
	ok, _ := f.Match(record)
	return ok
}

// Match evaluates the filter and reports why evaluation failed
func (f *exprFilter[T]) Match(record T) (bool, error) {
	result, err := expr.Run(f.program, f.env(record))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Kind:       f.kind,
			Record:     describe(record),
			Reason:     "failed to evaluate expression",
			Err:        err,
		}
	}

	// AsBool at compile time guarantees the result type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter[T]) Expression() string {
	return f.expression
}

func describe(record any) string {
	switch r := record.(type) {
	case cloud.Project:
		return fmt.Sprintf("project %d", r.ProjectID)
	case cloud.Backtest:
		return fmt.Sprintf("backtest %s", r.BacktestID)
	case cloud.LiveAlgorithm:
		return fmt.Sprintf("live algorithm %s", r.DeployID)
	default:
		return fmt.Sprintf("%T", record)
	}
}

// createHelperFunctions creates the helper functions shared by every
// record kind
func createHelperFunctions() map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"now": time.Now,
		// String helpers, case-insensitive. The case-sensitive forms are
		// the built-in contains, startsWith and endsWith operators.
		"hasText": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"hasPrefix": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"hasSuffix": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

func projectEnv(p cloud.Project) map[string]any {
	return map[string]any{
		"Project":     p,
		"ID":          p.ProjectID,
		"Name":        p.Name,
		"Language":    string(p.Language),
		"Description": p.Description,
		"Created":     p.Created.Time,
		"Modified":    p.Modified.Time,
	}
}

func backtestEnv(b cloud.Backtest) map[string]any {
	return map[string]any{
		"Backtest":  b,
		"ID":        b.BacktestID,
		"Name":      b.Name,
		"Note":      b.Note,
		"Completed": b.Completed,
		"Progress":  b.Progress,
		"Failed":    b.Error != "",
		"Trades":    b.Trades(),
		"WinRate":   b.WinRate(),
		"NetProfit": b.NetProfit(),
		"Sharpe":    b.SharpeRatio(),
		"Created":   b.Created.Time,
	}
}

func liveEnv(a cloud.LiveAlgorithm) map[string]any {
	var stopped time.Time
	if a.Stopped != nil {
		stopped = a.Stopped.Time
	}
	return map[string]any{
		"Live":       a,
		"ID":         a.DeployID,
		"ProjectID":  a.ProjectID,
		"Status":     string(a.Status),
		"Running":    a.Status == cloud.LiveRunning,
		"Brokerage":  a.Brokerage,
		"ServerType": a.ServerType,
		"Launched":   a.Launched.Time,
		"Stopped":    stopped,
	}
}
