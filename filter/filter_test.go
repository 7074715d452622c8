package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/s0up4200/searchads/searchads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCampaign() searchads.Campaign {
	return searchads.Campaign{
		ID:                 "42",
		OrgID:              "1001",
		OrgName:            "Acme",
		Name:               "Brand - US",
		AdamID:             "123456",
		Status:             "ENABLED",
		ServingStatus:      "RUNNING",
		DisplayStatus:      "RUNNING",
		AdChannelType:      "SEARCH",
		DailyBudgetAmount:  &searchads.Money{Amount: 150, Currency: "USD"},
		CountriesOrRegions: []string{"US", "CA"},
		SupplySources:      []string{"APPSTORE_SEARCH_RESULTS"},
		StartTime:          "2024-01-01T00:00:00.000",
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasCountry("us")`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `containsFold(Name, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "non boolean",
			expression: `DailyBudget * 2`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `Enabled and DailyBudget >= 100 and daysSince(StartTime) > 30 and not Deleted`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.True(t, errors.As(err, &compErr))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	compiler := NewExprCompiler(WithClock(clock))
	campaign := testCampaign()

	tests := []struct {
		expression string
		want       bool
	}{
		{`Enabled`, true},
		{`Status == "PAUSED"`, false},
		{`statusIs("enabled")`, true},
		{`hasCountry("ca")`, true},
		{`hasCountry("GB")`, false},
		{`hasSupplySource("APPSTORE_SEARCH_RESULTS")`, true},
		{`DailyBudget > 100 and Currency == "USD"`, true},
		{`Budget > 0`, false},
		{`containsFold(Name, "brand")`, true},
		{`containsFold(Name, "BRAND")`, true},
		{`hasPrefixFold(Name, "Generic")`, false},
		{`hasPrefixFold(Name, "brand")`, true},
		{`hasSuffixFold(Name, "US")`, true},
		{`lower(Name) contains "brand"`, true},
		{`Name startsWith "Generic"`, false},
		{`OrgName == "Acme" and AdamID == "123456"`, true},
		{`daysSince(StartTime) == 60`, true},
		{`StartTime > daysAgo(30)`, false},
		{`Campaign.AdChannelType == "SEARCH"`, true},
		{`"US" in Countries`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Evaluate(campaign))
		})
	}
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isBrand": func(name string) bool { return len(name) >= 5 && name[:5] == "Brand" },
	}))

	f, err := compiler.Compile(`isBrand(Name)`)
	require.NoError(t, err)
	assert.True(t, f.Evaluate(testCampaign()))
}

func TestApply(t *testing.T) {
	enabled := testCampaign()
	paused := testCampaign()
	paused.ID = "43"
	paused.Status = "PAUSED"
	other := testCampaign()
	other.ID = "44"

	f, err := CompileFilter(`Enabled`)
	require.NoError(t, err)

	matched, err := Apply(f, []searchads.Campaign{enabled, paused, other})
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, searchads.ID("42"), matched[0].ID)
	assert.Equal(t, searchads.ID("44"), matched[1].ID)

	all, err := Apply(nil, []searchads.Campaign{enabled, paused})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApplyEvaluationError(t *testing.T) {
	f, err := CompileFilter(`Unknown > 3`)
	require.NoError(t, err)

	_, err = Apply(f, []searchads.Campaign{testCampaign()})
	require.Error(t, err)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "42", evalErr.CampaignID)
	assert.False(t, f.Evaluate(testCampaign()))
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	a, err := compiler.Compile(`Enabled`)
	require.NoError(t, err)
	again, err := compiler.Compile(` Enabled `)
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 1, compiler.Size())

	_, err = compiler.Compile(`Deleted`)
	require.NoError(t, err)
	_, err = compiler.Compile(`Running`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	compiler.Clear()
	assert.Zero(t, compiler.Size())

	uncached := NewExprCompiler()
	_, err = uncached.Compile(`Enabled`)
	require.NoError(t, err)
	assert.Zero(t, uncached.Size())
}

func TestLRUCacheEviction(t *testing.T) {
	cache := newLRUCache[string, int](2)
	cache.Put("a", 1)
	cache.Put("b", 2)

	// Touch "a" so "b" is the eviction candidate.
	_, ok := cache.Get("a")
	require.True(t, ok)
	cache.Put("c", 3)

	_, ok = cache.Get("b")
	assert.False(t, ok)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	cache.Put("a", 10)
	v, _ = cache.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, cache.Size())
}

func TestDescribe(t *testing.T) {
	desc := Describe()
	assert.Contains(t, desc, "DailyBudget")
	assert.Contains(t, desc, "hasCountry")
	assert.Contains(t, desc, "containsFold")

	// every advertised helper must be callable
	for _, name := range []string{"containsFold", "hasPrefixFold", "hasSuffixFold"} {
		_, err := CompileFilter(name + `(Name, "x")`)
		assert.NoError(t, err, name)
	}
}
