package searchads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an API identifier. The API sends ids as JSON numbers in some places
// and strings in others; both decode to the same ID.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a string
func (id ID) String() string {
	return string(id)
}

// Money is an amount in a currency. Amounts arrive as strings ("12.50") or numbers.
type Money struct {
	Amount   float64 `json:"amount" yaml:"amount"`
	Currency string  `json:"currency" yaml:"currency"`
}

// UnmarshalJSON accepts amount as a JSON string or number
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   json.RawMessage `json:"amount" yaml:"amount"`
		Currency string          `json:"currency" yaml:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Currency = raw.Currency
	m.Amount = 0

	amount := strings.Trim(string(bytes.TrimSpace(raw.Amount)), `"`)
	if amount == "" || amount == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", amount, err)
	}
	m.Amount = v
	return nil
}

// Organization is an entry of the /acls response
type Organization struct {
	OrgID        ID       `json:"orgId" yaml:"orgId"`
	OrgName      string   `json:"orgName" yaml:"orgName"`
	Currency     string   `json:"currency" yaml:"currency"`
	PaymentModel string   `json:"paymentModel" yaml:"paymentModel"`
	RoleNames    []string `json:"roleNames" yaml:"roleNames"`
	TimeZone     string   `json:"timeZone" yaml:"timeZone"`
	ParentOrgID  ID       `json:"parentOrgId,omitempty" yaml:"parentOrgId,omitempty"`
}

// Campaign is a Search Ads campaign
type Campaign struct {
	ID                 ID       `json:"id" yaml:"id"`
	OrgID              ID       `json:"orgId" yaml:"orgId"`
	Name               string   `json:"name" yaml:"name"`
	AdamID             ID       `json:"adamId" yaml:"adamId"`
	Status             string   `json:"status" yaml:"status"`
	ServingStatus      string   `json:"servingStatus" yaml:"servingStatus"`
	DisplayStatus      string   `json:"displayStatus" yaml:"displayStatus"`
	AdChannelType      string   `json:"adChannelType" yaml:"adChannelType"`
	BillingEvent       string   `json:"billingEvent" yaml:"billingEvent"`
	BudgetAmount       *Money   `json:"budgetAmount,omitempty" yaml:"budgetAmount,omitempty"`
	DailyBudgetAmount  *Money   `json:"dailyBudgetAmount,omitempty" yaml:"dailyBudgetAmount,omitempty"`
	CountriesOrRegions []string `json:"countriesOrRegions" yaml:"countriesOrRegions"`
	SupplySources      []string `json:"supplySources" yaml:"supplySources"`
	StartTime          string   `json:"startTime" yaml:"startTime"`
	EndTime            string   `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Deleted            bool     `json:"deleted" yaml:"deleted"`

	// FetchedOrgID is the organization the campaign was listed under
	FetchedOrgID ID `json:"fetchedOrgId,omitempty" yaml:"fetchedOrgId,omitempty"`
	// OrgName is set by GetAllCampaigns
	OrgName string `json:"orgName,omitempty" yaml:"orgName,omitempty"`
}

// DailyBudget returns the daily budget amount, or 0 if unset
func (c Campaign) DailyBudget() float64 {
	if c.DailyBudgetAmount == nil {
		return 0
	}
	return c.DailyBudgetAmount.Amount
}

// Budget returns the lifetime budget amount, or 0 if unset
func (c Campaign) Budget() float64 {
	if c.BudgetAmount == nil {
		return 0
	}
	return c.BudgetAmount.Amount
}

// IsEnabled reports whether the campaign status is ENABLED
func (c Campaign) IsEnabled() bool {
	return c.Status == "ENABLED"
}

// AdGroup is an ad group within a campaign
type AdGroup struct {
	ID               ID     `json:"id" yaml:"id"`
	CampaignID       ID     `json:"campaignId" yaml:"campaignId"`
	OrgID            ID     `json:"orgId" yaml:"orgId"`
	Name             string `json:"name" yaml:"name"`
	Status           string `json:"status" yaml:"status"`
	ServingStatus    string `json:"servingStatus" yaml:"servingStatus"`
	DisplayStatus    string `json:"displayStatus" yaml:"displayStatus"`
	DefaultBidAmount *Money `json:"defaultBidAmount,omitempty" yaml:"defaultBidAmount,omitempty"`
	PricingModel     string `json:"pricingModel" yaml:"pricingModel"`
	StartTime        string `json:"startTime" yaml:"startTime"`
	EndTime          string `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Deleted          bool   `json:"deleted" yaml:"deleted"`
}

// Condition filters selector results
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator string   `json:"operator" yaml:"operator"`
	Values   []string `json:"values" yaml:"values"`
}

// Sorting orders selector results
type Sorting struct {
	Field     string `json:"field" yaml:"field"`
	SortOrder string `json:"sortOrder" yaml:"sortOrder"`
}

// Pagination is the in-body pagination of selectors
type Pagination struct {
	Offset int `json:"offset" yaml:"offset"`
	Limit  int `json:"limit" yaml:"limit"`
}

// Selector is the body of find and report requests
type Selector struct {
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Fields     []string    `json:"fields,omitempty" yaml:"fields,omitempty"`
	OrderBy    []Sorting   `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// WithPagination implements PagedBody
func (s Selector) WithPagination(offset, limit int) any {
	s.Pagination = &Pagination{Offset: offset, Limit: limit}
	return s
}

// Granularity is the time bucket of report rows
type Granularity string

const (
	GranularityHourly  Granularity = "HOURLY"
	GranularityDaily   Granularity = "DAILY"
	GranularityWeekly  Granularity = "WEEKLY"
	GranularityMonthly Granularity = "MONTHLY"
)

// ParseGranularity parses a granularity name case-insensitively
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToUpper(strings.TrimSpace(s))); g {
	case GranularityHourly, GranularityDaily, GranularityWeekly, GranularityMonthly:
		return g, nil
	default:
		return "", fmt.Errorf("invalid granularity %q (must be HOURLY, DAILY, WEEKLY or MONTHLY)", s)
	}
}

// ReportDateFormat is the date layout of report requests and rows
const ReportDateFormat = "2006-01-02"

// ReportRequest is the body of the report endpoints
type ReportRequest struct {
	StartTime                  string      `json:"startTime" yaml:"startTime"`
	EndTime                    string      `json:"endTime" yaml:"endTime"`
	Granularity                Granularity `json:"granularity,omitempty" yaml:"granularity,omitempty"`
	TimeZone                   string      `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	Selector                   Selector    `json:"selector" yaml:"selector"`
	GroupBy                    []string    `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	ReturnRowTotals            bool        `json:"returnRowTotals" yaml:"returnRowTotals"`
	ReturnGrandTotals          bool        `json:"returnGrandTotals" yaml:"returnGrandTotals"`
	ReturnRecordsWithNoMetrics bool        `json:"returnRecordsWithNoMetrics" yaml:"returnRecordsWithNoMetrics"`
}

// NewReportRequest builds a report request for the inclusive date range
func NewReportRequest(start, end time.Time, granularity Granularity) ReportRequest {
	if granularity == "" {
		granularity = GranularityDaily
	}
	return ReportRequest{
		StartTime:   start.Format(ReportDateFormat),
		EndTime:     end.Format(ReportDateFormat),
		Granularity: granularity,
		TimeZone:    "UTC",
		Selector: Selector{
			OrderBy: []Sorting{{Field: "countryOrRegion", SortOrder: "ASCENDING"}},
		},
	}
}

// WithPagination implements PagedBody
func (r ReportRequest) WithPagination(offset, limit int) any {
	r.Selector.Pagination = &Pagination{Offset: offset, Limit: limit}
	return r
}

// ReportMetadata identifies what a report row describes. Which fields are
// set depends on the report.
type ReportMetadata struct {
	CampaignID      ID     `json:"campaignId" yaml:"campaignId"`
	CampaignName    string `json:"campaignName" yaml:"campaignName"`
	AdamID          ID     `json:"adamId" yaml:"adamId"`
	App             *App   `json:"app,omitempty" yaml:"app,omitempty"`
	AdGroupID       ID     `json:"adGroupId" yaml:"adGroupId"`
	AdGroupName     string `json:"adGroupName" yaml:"adGroupName"`
	KeywordID       ID     `json:"keywordId" yaml:"keywordId"`
	Keyword         string `json:"keyword" yaml:"keyword"`
	MatchType       string `json:"matchType" yaml:"matchType"`
	SearchTermText  string `json:"searchTermText" yaml:"searchTermText"`
	CountryOrRegion string `json:"countryOrRegion" yaml:"countryOrRegion"`
	Deleted         bool   `json:"deleted" yaml:"deleted"`
}

// App is the promoted app of a report row
type App struct {
	AppName string `json:"appName" yaml:"appName"`
	AdamID  ID     `json:"adamId" yaml:"adamId"`
}

// ReportMetrics are the metrics of one granularity bucket or total
type ReportMetrics struct {
	Date          string  `json:"date" yaml:"date"`
	Impressions   int64   `json:"impressions" yaml:"impressions"`
	Taps          int64   `json:"taps" yaml:"taps"`
	TotalInstalls int64   `json:"totalInstalls" yaml:"totalInstalls"`
	TapInstalls   int64   `json:"tapInstalls" yaml:"tapInstalls"`
	ViewInstalls  int64   `json:"viewInstalls" yaml:"viewInstalls"`
	NewDownloads  int64   `json:"totalNewDownloads" yaml:"totalNewDownloads"`
	Redownloads   int64   `json:"totalRedownloads" yaml:"totalRedownloads"`
	LocalSpend    Money   `json:"localSpend" yaml:"localSpend"`
	AvgCPT        Money   `json:"avgCPT" yaml:"avgCPT"`
	TTR           float64 `json:"ttr" yaml:"ttr"`
}

// ReportRow is one row of a report response
type ReportRow struct {
	Other       bool            `json:"other" yaml:"other"`
	Metadata    ReportMetadata  `json:"metadata" yaml:"metadata"`
	Granularity []ReportMetrics `json:"granularity" yaml:"granularity"`
	Total       *ReportMetrics  `json:"total,omitempty" yaml:"total,omitempty"`
}
