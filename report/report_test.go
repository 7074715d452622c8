package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/s0up4200/searchads/searchads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// mockSource implements Source for testing
type mockSource struct {
	orgID     string
	orgs      []searchads.Organization
	campaigns map[string][]searchads.Campaign
	reports   map[string][]searchads.ReportRow
	reportErr error

	requests []searchads.ReportRequest
	orgCalls int
}

func (m *mockSource) OrgID() string { return m.orgID }

func (m *mockSource) GetAllOrganizations(ctx context.Context) ([]searchads.Organization, error) {
	m.orgCalls++
	return m.orgs, nil
}

func (m *mockSource) GetCampaigns(ctx context.Context, orgID string) ([]searchads.Campaign, error) {
	return m.campaigns[orgID], nil
}

func (m *mockSource) GetCampaignReport(ctx context.Context, orgID string, req searchads.ReportRequest) ([]searchads.ReportRow, error) {
	m.requests = append(m.requests, req)
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.reports[orgID], nil
}

func reportRow(campaignID, adamID string, metrics ...searchads.ReportMetrics) searchads.ReportRow {
	return searchads.ReportRow{
		Metadata: searchads.ReportMetadata{
			CampaignID:   searchads.ID(campaignID),
			CampaignName: "Campaign " + campaignID,
			AdamID:       searchads.ID(adamID),
		},
		Granularity: metrics,
	}
}

func day(date string, impressions, taps, installs int64, spend float64) searchads.ReportMetrics {
	return searchads.ReportMetrics{
		Date:          date,
		Impressions:   impressions,
		Taps:          taps,
		TotalInstalls: installs,
		LocalSpend:    searchads.Money{Amount: spend, Currency: "USD"},
	}
}

func newTestService(src Source) *Service {
	s := NewService(src, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestFromReport(t *testing.T) {
	total := day("", 10, 2, 1, 3.5)
	rows := FromReport([]searchads.ReportRow{
		reportRow("1", "111", day("2024-01-01", 1000, 50, 10, 100), day("2024-01-02", 800, 40, 8, 75)),
		{
			Metadata: searchads.ReportMetadata{
				CampaignID: "2",
				App:        &searchads.App{AppName: "Other", AdamID: "222"},
			},
			Total: &total,
		},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-01", rows[0].Date)
	assert.Equal(t, int64(50), rows[0].Taps)
	assert.Equal(t, 100.0, rows[0].Spend)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Equal(t, "111", rows[1].AdamID)
	assert.Equal(t, "222", rows[2].AdamID, "app adam id fallback")
	assert.Equal(t, 3.5, rows[2].Spend)
}

func TestSumDaily(t *testing.T) {
	rows := FromReport([]searchads.ReportRow{
		reportRow("1", "111", day("2024-01-02", 800, 40, 8, 75), day("2024-01-01", 1000, 50, 10, 100)),
		reportRow("2", "111", day("2024-01-01", 500, 25, 5, 50)),
	})

	daily := SumDaily(rows)
	require.Len(t, daily, 2)

	assert.Equal(t, DailySpend{Date: "2024-01-01", Spend: 150, Impressions: 1500, Clicks: 75, Installs: 15}, daily[0])
	assert.Equal(t, DailySpend{Date: "2024-01-02", Spend: 75, Impressions: 800, Clicks: 40, Installs: 8}, daily[1])
}

func TestSumDailyByApp(t *testing.T) {
	rows := FromReport([]searchads.ReportRow{
		reportRow("1", "", day("2024-01-01", 1000, 50, 10, 100)),
		reportRow("2", "", day("2024-01-01", 500, 25, 5, 50.25)),
		reportRow("3", "333", day("2024-01-01", 300, 10, 2, 20), day("2024-01-02", 100, 5, 1, 10)),
	})
	appOf := map[string]string{"1": "111", "2": "111"}

	spend := SumDailyByApp(rows, appOf)
	require.Len(t, spend, 3)

	assert.Equal(t, AppSpend{Date: "2024-01-01", AppID: "111", Spend: 150.25, Impressions: 1500, Clicks: 75, Installs: 15, Campaigns: 2}, spend[0])
	assert.Equal(t, "333", spend[1].AppID)
	assert.Equal(t, "2024-01-01", spend[1].Date)
	assert.Equal(t, 1, spend[1].Campaigns)
	assert.Equal(t, "2024-01-02", spend[2].Date)
}

func TestSummarizeApps(t *testing.T) {
	summary := SummarizeApps([]AppSpend{
		{Date: "2024-01-01", AppID: "small", Spend: 10, Impressions: 100, Clicks: 10, Installs: 0, Campaigns: 1},
		{Date: "2024-01-01", AppID: "big", Spend: 100, Impressions: 1000, Clicks: 50, Installs: 10, Campaigns: 2},
		{Date: "2024-01-02", AppID: "big", Spend: 50, Impressions: 1000, Clicks: 50, Installs: 20, Campaigns: 3},
	})

	require.Len(t, summary, 2)
	big := summary[0]
	assert.Equal(t, "big", big.AppID)
	assert.Equal(t, 150.0, big.Spend)
	assert.Equal(t, 3, big.Campaigns)
	assert.Equal(t, 5.0, big.CPI)
	assert.Equal(t, 5.0, big.CTR)
	assert.Equal(t, 30.0, big.CVR)

	small := summary[1]
	assert.Zero(t, small.CPI, "no installs means no CPI")
	assert.Equal(t, 10.0, small.CTR)
}

func TestServiceDailySpend(t *testing.T) {
	src := &mockSource{
		orgID: "1001",
		reports: map[string][]searchads.ReportRow{
			"1001": {reportRow("1", "111", day("2024-01-30", 100, 10, 1, 12.5))},
		},
	}
	s := newTestService(src)

	daily, err := s.DailySpend(context.Background(), 7, false)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 12.5, daily[0].Spend)
	assert.Zero(t, src.orgCalls)

	require.Len(t, src.requests, 1)
	req := src.requests[0]
	assert.Equal(t, "2024-01-24", req.StartTime)
	assert.Equal(t, "2024-01-31", req.EndTime)
	assert.Equal(t, searchads.GranularityDaily, req.Granularity)

	_, err = s.DailySpend(context.Background(), 0, false)
	assert.Error(t, err)
}

func TestServiceDailySpendByAppAllOrgs(t *testing.T) {
	src := &mockSource{
		orgs: []searchads.Organization{{OrgID: "1"}, {OrgID: "2"}},
		campaigns: map[string][]searchads.Campaign{
			"1": {{ID: "10", AdamID: "900"}},
			"2": {{ID: "20", AdamID: "900"}, {ID: "21", AdamID: "901"}},
		},
		reports: map[string][]searchads.ReportRow{
			"1": {reportRow("10", "", day("2024-01-01", 100, 10, 1, 10))},
			"2": {
				reportRow("20", "", day("2024-01-01", 100, 10, 1, 20)),
				reportRow("21", "", day("2024-01-01", 100, 10, 1, 5)),
			},
		},
	}
	s := newTestService(src)

	period := Period{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	spend, err := s.DailySpendByApp(context.Background(), period, true)
	require.NoError(t, err)
	require.Len(t, spend, 2)

	assert.Equal(t, "900", spend[0].AppID)
	assert.Equal(t, 30.0, spend[0].Spend)
	assert.Equal(t, 2, spend[0].Campaigns)
	assert.Equal(t, "901", spend[1].AppID)
	assert.Equal(t, 1, src.orgCalls)
}

func TestServiceErrors(t *testing.T) {
	src := &mockSource{orgID: "1", reportErr: searchads.ErrRateLimited}
	s := newTestService(src)

	_, err := s.DailySpend(context.Background(), 1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, searchads.ErrRateLimited))

	bad := Period{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	_, err = s.CampaignRows(context.Background(), "1", bad, searchads.GranularityDaily)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start date")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "CSV": FormatCSV, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	daily := DailySpendTable{
		{Date: "2024-01-01", Spend: 150, Impressions: 1500, Clicks: 75, Installs: 15},
		{Date: "2024-01-02", Spend: 75.5, Impressions: 800, Clicks: 40, Installs: 8},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatTable, daily))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "DATE"))
		assert.Contains(t, lines[2], "75.50")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatTable, DailySpendTable{}))
		assert.Equal(t, "No results\n", buf.String())
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatCSV, daily))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"date", "spend", "impressions", "clicks", "installs"}, records[0])
		assert.Equal(t, []string{"2024-01-01", "150.00", "1500", "75", "15"}, records[1])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatJSON, daily))
		var out []DailySpend
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, []DailySpend(daily), out)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatYAML, daily))
		var out []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Equal(t, 40, out[1]["clicks"])
	})
}

func TestRowsHeader(t *testing.T) {
	plain := Rows{{Date: "2024-01-01", CampaignID: "1"}}
	assert.NotContains(t, plain.Header(), "keyword")

	keywords := Rows{{Date: "2024-01-01", CampaignID: "1", AdGroupID: "5", Keyword: "photo editor", MatchType: "EXACT", Spend: 1}}
	header := keywords.Header()
	assert.Contains(t, header, "ad_group_id")
	assert.Contains(t, header, "keyword")
	assert.NotContains(t, header, "search_term")

	records := keywords.Records()
	require.Len(t, records, 1)
	assert.Len(t, records[0], len(header))
	assert.Contains(t, records[0], "photo editor")
	assert.Contains(t, records[0], "1.00")
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter()
	assert.Equal(t, "No campaigns found", f.FormatCampaigns(nil))

	out := f.FormatCampaigns([]searchads.Campaign{
		{ID: "1", Name: "Brand", FetchedOrgID: "10", OrgName: "Org A", Status: "ENABLED", ServingStatus: "RUNNING",
			DailyBudgetAmount: &searchads.Money{Amount: 50, Currency: "USD"}},
		{ID: "2", Name: "Generic", FetchedOrgID: "10", OrgName: "Org A", Status: "PAUSED"},
		{ID: "3", Name: "Competitor", FetchedOrgID: "20", Status: "ENABLED"},
	})

	assert.Contains(t, out, "Campaigns (3):")
	assert.Contains(t, out, "Org A (10)")
	assert.Contains(t, out, "Organization 20")
	assert.Contains(t, out, "├── Brand (1)")
	assert.Contains(t, out, "╰── Generic (2)")
	assert.Contains(t, out, "╰── Competitor (3)")
	assert.Contains(t, out, "Status: ENABLED / RUNNING")
	assert.Contains(t, out, "Daily budget: 50.00 USD")
}

func TestCampaignTable(t *testing.T) {
	table := CampaignTable{{ID: "1", OrgID: "10", Name: "Brand", CountriesOrRegions: []string{"US", "CA"}}}
	records := table.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "10", records[0][0])
	assert.Equal(t, "US,CA", records[0][8])
}

func TestStructuredOutputKeys(t *testing.T) {
	tests := []struct {
		name  string
		table Tabular
		keys  []string
	}{
		{
			name:  "organizations",
			table: OrganizationTable{{OrgID: "10", OrgName: "Org A", Currency: "USD", ParentOrgID: "1"}},
			keys:  []string{"orgId", "orgName", "parentOrgId", "timeZone"},
		},
		{
			name: "campaigns",
			table: CampaignTable{{ID: "1", OrgID: "10", Name: "Brand", AdamID: "123",
				DailyBudgetAmount: &searchads.Money{Amount: 50, Currency: "USD"}}},
			keys: []string{"orgId", "adamId", "dailyBudgetAmount", "countriesOrRegions"},
		},
		{
			name: "ad groups",
			table: AdGroupTable{{ID: "5", CampaignID: "1", Name: "Exact",
				DefaultBidAmount: &searchads.Money{Amount: 1.5, Currency: "USD"}}},
			keys: []string{"campaignId", "defaultBidAmount", "pricingModel"},
		},
	}

	decodeKeys := func(t *testing.T, format Format, table Tabular) []string {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, format, table))

		var out []map[string]any
		if format == FormatJSON {
			require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		} else {
			require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
		}
		require.Len(t, out, 1)

		keys := make([]string, 0, len(out[0]))
		for k := range out[0] {
			keys = append(keys, k)
		}
		return keys
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yamlKeys := decodeKeys(t, FormatYAML, tt.table)
			for _, k := range tt.keys {
				assert.Contains(t, yamlKeys, k)
			}
			assert.ElementsMatch(t, decodeKeys(t, FormatJSON, tt.table), yamlKeys)
		})
	}
}
