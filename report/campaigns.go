package report

import (
	"fmt"
	"strings"

	"github.com/s0up4200/searchads/searchads"
)

// OrganizationTable renders organizations
type OrganizationTable []searchads.Organization

// Header implements Tabular
func (OrganizationTable) Header() []string {
	return []string{"org_id", "name", "currency", "payment_model", "time_zone", "roles"}
}

// Records implements Tabular
func (t OrganizationTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, o := range t {
		records = append(records, []string{
			o.OrgID.String(),
			o.OrgName,
			o.Currency,
			o.PaymentModel,
			o.TimeZone,
			strings.Join(o.RoleNames, ","),
		})
	}
	return records
}

// CampaignTable renders campaigns
type CampaignTable []searchads.Campaign

// Header implements Tabular
func (CampaignTable) Header() []string {
	return []string{"org_id", "campaign_id", "name", "adam_id", "status", "serving_status", "daily_budget", "currency", "countries"}
}

// Records implements Tabular
func (t CampaignTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, c := range t {
		orgID := c.FetchedOrgID
		if orgID == "" {
			orgID = c.OrgID
		}
		currency := ""
		if c.DailyBudgetAmount != nil {
			currency = c.DailyBudgetAmount.Currency
		}
		records = append(records, []string{
			orgID.String(),
			c.ID.String(),
			c.Name,
			c.AdamID.String(),
			c.Status,
			c.ServingStatus,
			formatMoney(c.DailyBudget()),
			currency,
			strings.Join(c.CountriesOrRegions, ","),
		})
	}
	return records
}

// ConsoleFormatter renders campaigns as a tree for terminal output
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatCampaigns formats campaigns grouped by the organization they were
// fetched from, in input order
func (f *ConsoleFormatter) FormatCampaigns(campaigns []searchads.Campaign) string {
	if len(campaigns) == 0 {
		return "No campaigns found"
	}

	var sb strings.Builder

	sb.WriteString("\nCampaign")
	if len(campaigns) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n", len(campaigns))

	var lastOrg searchads.ID
	for i, c := range campaigns {
		org := c.FetchedOrgID
		if i == 0 || org != lastOrg {
			sb.WriteString("\n")
			if c.OrgName != "" {
				fmt.Fprintf(&sb, "%s (%s)\n", c.OrgName, org)
			} else if org != "" {
				fmt.Fprintf(&sb, "Organization %s\n", org)
			}
			lastOrg = org
		}

		isLast := i == len(campaigns)-1 || campaigns[i+1].FetchedOrgID != org
		f.formatCampaign(&sb, c, isLast)
	}

	sb.WriteString("\n")
	return sb.String()
}

func (f *ConsoleFormatter) formatCampaign(sb *strings.Builder, c searchads.Campaign, isLast bool) {
	prefix := "├"
	indent := "│   "
	if isLast {
		prefix = "╰"
		indent = "    "
	}

	fmt.Fprintf(sb, "%s── %s (%s)\n", prefix, c.Name, c.ID)

	status := c.Status
	if c.ServingStatus != "" && c.ServingStatus != c.Status {
		status += " / " + c.ServingStatus
	}
	fmt.Fprintf(sb, "%sStatus: %s\n", indent, status)

	if c.AdamID != "" {
		fmt.Fprintf(sb, "%sApp: %s\n", indent, c.AdamID)
	}

	if c.DailyBudgetAmount != nil {
		fmt.Fprintf(sb, "%sDaily budget: %s %s\n", indent, formatMoney(c.DailyBudgetAmount.Amount), c.DailyBudgetAmount.Currency)
	}

	if len(c.CountriesOrRegions) > 0 {
		fmt.Fprintf(sb, "%sCountries: %s\n", indent, strings.Join(c.CountriesOrRegions, ", "))
	}

	if !isLast {
		sb.WriteString("│\n")
	}
}

// AdGroupTable renders ad groups
type AdGroupTable []searchads.AdGroup

// Header implements Tabular
func (AdGroupTable) Header() []string {
	return []string{"ad_group_id", "campaign_id", "name", "status", "serving_status", "default_bid", "currency"}
}

// Records implements Tabular
func (t AdGroupTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, g := range t {
		bid, currency := "", ""
		if g.DefaultBidAmount != nil {
			bid = formatMoney(g.DefaultBidAmount.Amount)
			currency = g.DefaultBidAmount.Currency
		}
		records = append(records, []string{
			g.ID.String(),
			g.CampaignID.String(),
			g.Name,
			g.Status,
			g.ServingStatus,
			bid,
			currency,
		})
	}
	return records
}
