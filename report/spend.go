package report

import (
	"cmp"
	"math"
	"slices"
	"strconv"
)

// DailySpend is spend and engagement summed over one day
type DailySpend struct {
	Date        string  `json:"date" yaml:"date"`
	Spend       float64 `json:"spend" yaml:"spend"`
	Impressions int64   `json:"impressions" yaml:"impressions"`
	Clicks      int64   `json:"clicks" yaml:"clicks"`
	Installs    int64   `json:"installs" yaml:"installs"`
}

// AppSpend is spend and engagement of one app on one day
type AppSpend struct {
	Date        string  `json:"date" yaml:"date"`
	AppID       string  `json:"app_id" yaml:"app_id"`
	Spend       float64 `json:"spend" yaml:"spend"`
	Impressions int64   `json:"impressions" yaml:"impressions"`
	Clicks      int64   `json:"clicks" yaml:"clicks"`
	Installs    int64   `json:"installs" yaml:"installs"`
	// Campaigns is the number of distinct campaigns contributing
	Campaigns int `json:"campaigns" yaml:"campaigns"`
}

// AppSummary totals one app over a period with derived rates
type AppSummary struct {
	AppID       string  `json:"app_id" yaml:"app_id"`
	Spend       float64 `json:"spend" yaml:"spend"`
	Impressions int64   `json:"impressions" yaml:"impressions"`
	Clicks      int64   `json:"clicks" yaml:"clicks"`
	Installs    int64   `json:"installs" yaml:"installs"`
	Campaigns   int     `json:"campaigns" yaml:"campaigns"`
	// CPI is spend per install
	CPI float64 `json:"cpi" yaml:"cpi"`
	// CTR is clicks per impression, in percent
	CTR float64 `json:"ctr" yaml:"ctr"`
	// CVR is installs per click, in percent
	CVR float64 `json:"cvr" yaml:"cvr"`
}

// SumDaily groups rows by date, ordered by date
func SumDaily(rows []Row) []DailySpend {
	byDate := make(map[string]*DailySpend)
	for _, r := range rows {
		d, ok := byDate[r.Date]
		if !ok {
			d = &DailySpend{Date: r.Date}
			byDate[r.Date] = d
		}
		d.Spend += r.Spend
		d.Impressions += r.Impressions
		d.Clicks += r.Taps
		d.Installs += r.Installs
	}

	out := make([]DailySpend, 0, len(byDate))
	for _, d := range byDate {
		d.Spend = round2(d.Spend)
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b DailySpend) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

// SumDailyByApp groups rows by date and app, ordered by date then app.
// appOf maps campaign ids to app ids; rows of unmapped campaigns use their own
// adam id.
func SumDailyByApp(rows []Row, appOf map[string]string) []AppSpend {
	type key struct{ date, app string }
	groups := make(map[key]*AppSpend)
	campaigns := make(map[key]map[string]struct{})

	for _, r := range rows {
		app := r.AdamID
		if mapped, ok := appOf[r.CampaignID]; ok && mapped != "" {
			app = mapped
		}
		k := key{r.Date, app}
		g, ok := groups[k]
		if !ok {
			g = &AppSpend{Date: r.Date, AppID: app}
			groups[k] = g
			campaigns[k] = make(map[string]struct{})
		}
		g.Spend += r.Spend
		g.Impressions += r.Impressions
		g.Clicks += r.Taps
		g.Installs += r.Installs
		campaigns[k][r.CampaignID] = struct{}{}
	}

	out := make([]AppSpend, 0, len(groups))
	for k, g := range groups {
		g.Campaigns = len(campaigns[k])
		g.Spend = round2(g.Spend)
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b AppSpend) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.AppID, b.AppID))
	})
	return out
}

// SummarizeApps totals daily app spend per app, highest spend first
func SummarizeApps(daily []AppSpend) []AppSummary {
	byApp := make(map[string]*AppSummary)
	for _, d := range daily {
		s, ok := byApp[d.AppID]
		if !ok {
			s = &AppSummary{AppID: d.AppID}
			byApp[d.AppID] = s
		}
		s.Spend += d.Spend
		s.Impressions += d.Impressions
		s.Clicks += d.Clicks
		s.Installs += d.Installs
		s.Campaigns = max(s.Campaigns, d.Campaigns)
	}

	out := make([]AppSummary, 0, len(byApp))
	for _, s := range byApp {
		s.Spend = round2(s.Spend)
		s.CPI = ratio(s.Spend, float64(s.Installs), 1)
		s.CTR = ratio(float64(s.Clicks), float64(s.Impressions), 100)
		s.CVR = ratio(float64(s.Installs), float64(s.Clicks), 100)
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b AppSummary) int {
		return cmp.Or(cmp.Compare(b.Spend, a.Spend), cmp.Compare(a.AppID, b.AppID))
	})
	return out
}

func ratio(num, den, scale float64) float64 {
	if den == 0 {
		return 0
	}
	return round2(num / den * scale)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DailySpendTable renders daily spend
type DailySpendTable []DailySpend

// Header implements Tabular
func (DailySpendTable) Header() []string {
	return []string{"date", "spend", "impressions", "clicks", "installs"}
}

// Records implements Tabular
func (t DailySpendTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, d := range t {
		records = append(records, []string{
			d.Date,
			formatMoney(d.Spend),
			strconv.FormatInt(d.Impressions, 10),
			strconv.FormatInt(d.Clicks, 10),
			strconv.FormatInt(d.Installs, 10),
		})
	}
	return records
}

// AppSpendTable renders daily spend per app
type AppSpendTable []AppSpend

// Header implements Tabular
func (AppSpendTable) Header() []string {
	return []string{"date", "app_id", "spend", "impressions", "clicks", "installs", "campaigns"}
}

// Records implements Tabular
func (t AppSpendTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, d := range t {
		records = append(records, []string{
			d.Date,
			d.AppID,
			formatMoney(d.Spend),
			strconv.FormatInt(d.Impressions, 10),
			strconv.FormatInt(d.Clicks, 10),
			strconv.FormatInt(d.Installs, 10),
			strconv.Itoa(d.Campaigns),
		})
	}
	return records
}

// AppSummaryTable renders per-app totals
type AppSummaryTable []AppSummary

// Header implements Tabular
func (AppSummaryTable) Header() []string {
	return []string{"app_id", "spend", "impressions", "clicks", "installs", "campaigns", "cpi", "ctr", "cvr"}
}

// Records implements Tabular
func (t AppSummaryTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, s := range t {
		records = append(records, []string{
			s.AppID,
			formatMoney(s.Spend),
			strconv.FormatInt(s.Impressions, 10),
			strconv.FormatInt(s.Clicks, 10),
			strconv.FormatInt(s.Installs, 10),
			strconv.Itoa(s.Campaigns),
			formatMoney(s.CPI),
			formatMoney(s.CTR),
			formatMoney(s.CVR),
		})
	}
	return records
}
