package filter

// Filter matches records of type T against a compiled expression
type Filter[T any] interface {
	// Evaluate reports whether record matches. Records that fail to
	// evaluate never match.
	Evaluate(record T) bool

	// Match is Evaluate with the evaluation error, an *EvaluationError
	Match(record T) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}
