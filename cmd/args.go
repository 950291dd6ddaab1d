package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cloudbridge/filter"
)

var evaluator = filter.NewEvaluator()

// parseProjectID parses a positional project id argument
func parseProjectID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q: must be a positive integer", arg)
	}
	return id, nil
}

// resolveFilter returns the named filter from config when value names one,
// otherwise value itself is the expression
func resolveFilter(value string) string {
	if named, ok := cfg.Filters[value]; ok {
		logger.Debug().Str("name", value).Str("expression", named).Msg("Using named filter")
		return named
	}
	return value
}

// applyFilter narrows records with the expression given by value, compiled
// by compileFn. An empty value keeps every record.
func applyFilter[T any](ctx context.Context, value string, compileFn func(string) (filter.Filter[T], error), records []T) ([]T, error) {
	if value == "" {
		return records, nil
	}

	f, err := compileFn(resolveFilter(value))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return filter.Apply(ctx, evaluator, f, records)
}

// readContent returns the literal content, or the content of path when set
func readContent(content, path string) (string, error) {
	if path == "" {
		return content, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// withClient is the persistent pre-run of command groups that talk to the
// API; it replaces the root pre-run, so it loads config first.
func withClient(cmd *cobra.Command, args []string) error {
	if err := initializeApp(cmd, args); err != nil {
		return err
	}
	return initClient(cmd, args)
}
