package report

import (
	"strconv"

	"github.com/s0up4200/searchads/searchads"
)

// Row is one report row for one granularity bucket
type Row struct {
	Date            string  `json:"date" yaml:"date"`
	OrgID           string  `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	CampaignID      string  `json:"campaign_id" yaml:"campaign_id"`
	CampaignName    string  `json:"campaign_name" yaml:"campaign_name"`
	AdamID          string  `json:"adam_id" yaml:"adam_id"`
	AdGroupID       string  `json:"ad_group_id,omitempty" yaml:"ad_group_id,omitempty"`
	AdGroupName     string  `json:"ad_group_name,omitempty" yaml:"ad_group_name,omitempty"`
	KeywordID       string  `json:"keyword_id,omitempty" yaml:"keyword_id,omitempty"`
	Keyword         string  `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	MatchType       string  `json:"match_type,omitempty" yaml:"match_type,omitempty"`
	SearchTerm      string  `json:"search_term,omitempty" yaml:"search_term,omitempty"`
	CountryOrRegion string  `json:"country_or_region,omitempty" yaml:"country_or_region,omitempty"`
	Impressions     int64   `json:"impressions" yaml:"impressions"`
	Taps            int64   `json:"taps" yaml:"taps"`
	Installs        int64   `json:"installs" yaml:"installs"`
	Spend           float64 `json:"spend" yaml:"spend"`
	Currency        string  `json:"currency" yaml:"currency"`
}

// FromReport flattens report rows into one Row per granularity bucket.
// Rows without buckets fall back to their totals.
func FromReport(rows []searchads.ReportRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		buckets := r.Granularity
		if len(buckets) == 0 && r.Total != nil {
			buckets = []searchads.ReportMetrics{*r.Total}
		}
		for _, m := range buckets {
			out = append(out, newRow(r.Metadata, m))
		}
	}
	return out
}

func newRow(md searchads.ReportMetadata, m searchads.ReportMetrics) Row {
	adamID := md.AdamID.String()
	if adamID == "" && md.App != nil {
		adamID = md.App.AdamID.String()
	}
	return Row{
		Date:            m.Date,
		CampaignID:      md.CampaignID.String(),
		CampaignName:    md.CampaignName,
		AdamID:          adamID,
		AdGroupID:       md.AdGroupID.String(),
		AdGroupName:     md.AdGroupName,
		KeywordID:       md.KeywordID.String(),
		Keyword:         md.Keyword,
		MatchType:       md.MatchType,
		SearchTerm:      md.SearchTermText,
		CountryOrRegion: md.CountryOrRegion,
		Impressions:     m.Impressions,
		Taps:            m.Taps,
		Installs:        m.TotalInstalls,
		Spend:           m.LocalSpend.Amount,
		Currency:        m.LocalSpend.Currency,
	}
}

// Rows renders report rows. Ad group, keyword and search term columns appear
// only when some row carries them.
type Rows []Row

// Header implements Tabular
func (rs Rows) Header() []string {
	var adGroups, keywords, terms bool
	for _, r := range rs {
		adGroups = adGroups || r.AdGroupID != ""
		keywords = keywords || r.Keyword != ""
		terms = terms || r.SearchTerm != ""
	}

	header := []string{"date", "campaign_id", "campaign_name", "adam_id"}
	if adGroups {
		header = append(header, "ad_group_id", "ad_group_name")
	}
	if keywords {
		header = append(header, "keyword", "match_type")
	}
	if terms {
		header = append(header, "search_term")
	}
	return append(header, "impressions", "taps", "installs", "spend", "currency")
}

// Records implements Tabular
func (rs Rows) Records() [][]string {
	header := rs.Header()
	records := make([][]string, 0, len(rs))
	for _, r := range rs {
		record := make([]string, 0, len(header))
		for _, col := range header {
			record = append(record, r.field(col))
		}
		records = append(records, record)
	}
	return records
}

func (r Row) field(col string) string {
	switch col {
	case "date":
		return r.Date
	case "campaign_id":
		return r.CampaignID
	case "campaign_name":
		return r.CampaignName
	case "adam_id":
		return r.AdamID
	case "ad_group_id":
		return r.AdGroupID
	case "ad_group_name":
		return r.AdGroupName
	case "keyword":
		return r.Keyword
	case "match_type":
		return r.MatchType
	case "search_term":
		return r.SearchTerm
	case "impressions":
		return strconv.FormatInt(r.Impressions, 10)
	case "taps":
		return strconv.FormatInt(r.Taps, 10)
	case "installs":
		return strconv.FormatInt(r.Installs, 10)
	case "spend":
		return formatMoney(r.Spend)
	case "currency":
		return r.Currency
	default:
		return ""
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
