package filter

import (
	"github.com/s0up4200/searchads/searchads"
)

// Filter defines the basic interface for campaign filters
type Filter interface {
	// Evaluate checks if a campaign matches the filter criteria
	Evaluate(campaign searchads.Campaign) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match evaluates the filter and reports evaluation failures
	Match(campaign searchads.Campaign) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
