package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/s0up4200/searchads/searchads"
)

// campaignTimeLayout is the timestamp layout of campaign start and end times
const campaignTimeLayout = "2006-01-02T15:04:05.000"

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// WithClock sets the time source of the date helpers
func WithClock(now func() time.Time) ExprCompilerOption {
	return func(c *exprCompiler) {
		c.now = now
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: make(map[string]any, 16),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	custom := c.helperFuncs
	c.helperFuncs = createHelperFunctions(c.now)
	maps.Copy(c.helperFuncs, custom)

	return c
}

// exprCompiler implements CachingCompiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[string, CompiledFilter]
	now         func() time.Time
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Unknown identifiers evaluate to nil instead of failing compilation
	program, err := expr.Compile(expression,
		expr.Env(c.compileEnv()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// compileEnv is the helper map plus a zero campaign, so that field names
// and helper signatures are type-checked at compile time
func (c *exprCompiler) compileEnv() map[string]any {
	return createRuntimeEnvironment(searchads.Campaign{}, c.helperFuncs)
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether the campaign matches; evaluation errors count as no match
func (f *exprFilter) Evaluate(campaign searchads.Campaign) bool {
	ok, err := f.Match(campaign)
	return err == nil && ok
}

// Match evaluates the filter against a campaign
func (f *exprFilter) Match(campaign searchads.Campaign) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(campaign, f.helpers))
	if err != nil {
		return false, &EvaluationError{
			Expression:   f.expression,
			CampaignID:   campaign.ID.String(),
			CampaignName: campaign.Name,
			Err:          err,
		}
	}

	// AsBool guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions
func createHelperFunctions(now func() time.Time) map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			if t.IsZero() {
				return 0
			}
			return int(now().Sub(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return now().AddDate(0, 0, -days)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},
		"now": now,
		// String helpers. contains, startsWith and endsWith are expr operators,
		// so the case-insensitive forms carry a Fold suffix.
		"containsFold": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"hasPrefixFold": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"hasSuffixFold": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

// createRuntimeEnvironment exposes the campaign's fields and campaign helpers
func createRuntimeEnvironment(campaign searchads.Campaign, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+32)
	maps.Copy(env, helpers)

	env["Campaign"] = campaign

	env["hasCountry"] = createHasValueFunc(campaign.CountriesOrRegions)
	env["hasSupplySource"] = createHasValueFunc(campaign.SupplySources)
	env["statusIs"] = func(status string) bool {
		return strings.EqualFold(campaign.Status, status)
	}

	env["ID"] = campaign.ID.String()
	env["Name"] = campaign.Name
	env["OrgID"] = campaign.OrgID.String()
	env["OrgName"] = campaign.OrgName
	env["AdamID"] = campaign.AdamID.String()
	env["Status"] = campaign.Status
	env["ServingStatus"] = campaign.ServingStatus
	env["DisplayStatus"] = campaign.DisplayStatus
	env["AdChannelType"] = campaign.AdChannelType
	env["Enabled"] = campaign.IsEnabled()
	env["Running"] = campaign.ServingStatus == "RUNNING"
	env["Deleted"] = campaign.Deleted
	env["DailyBudget"] = campaign.DailyBudget()
	env["Budget"] = campaign.Budget()
	env["Countries"] = campaign.CountriesOrRegions
	env["SupplySources"] = campaign.SupplySources
	env["StartTime"] = parseCampaignTime(campaign.StartTime)
	env["EndTime"] = parseCampaignTime(campaign.EndTime)
	env["Currency"] = campaignCurrency(campaign)

	return env
}

func createHasValueFunc(values []string) func(string) bool {
	upper := make([]string, len(values))
	for i, v := range values {
		upper[i] = strings.ToUpper(v)
	}
	return func(v string) bool {
		return slices.Contains(upper, strings.ToUpper(v))
	}
}

func parseCampaignTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{campaignTimeLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func campaignCurrency(c searchads.Campaign) string {
	switch {
	case c.DailyBudgetAmount != nil:
		return c.DailyBudgetAmount.Currency
	case c.BudgetAmount != nil:
		return c.BudgetAmount.Currency
	default:
		return ""
	}
}
