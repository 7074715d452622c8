package filter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/s0up4200/searchads/searchads"
)

// Apply returns the campaigns matching f, keeping their order
func Apply(f CompiledFilter, campaigns []searchads.Campaign) ([]searchads.Campaign, error) {
	if f == nil {
		return campaigns, nil
	}

	matched := make([]searchads.Campaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		ok, err := f.Match(campaign)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, campaign)
		}
	}
	return matched, nil
}

// CompileFilter compiles expression with the default compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

var defaultCompiler = NewExprCompiler(WithCache(64))

// Describe lists the names available to filter expressions
func Describe() string {
	names := slices.Sorted(maps.Keys(createRuntimeEnvironment(searchads.Campaign{}, createHelperFunctions(time.Now))))
	return fmt.Sprintf("available: %s", strings.Join(names, ", "))
}
