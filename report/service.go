package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/s0up4200/searchads/searchads"
)

// Source is the part of the Search Ads client the reports are built from
type Source interface {
	OrgID() string
	GetAllOrganizations(ctx context.Context) ([]searchads.Organization, error)
	GetCampaigns(ctx context.Context, orgID string) ([]searchads.Campaign, error)
	GetCampaignReport(ctx context.Context, orgID string, req searchads.ReportRequest) ([]searchads.ReportRow, error)
}

// Service builds spend reports from a Source
type Service struct {
	src    Source
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a report service
func NewService(src Source, logger zerolog.Logger) *Service {
	return &Service{
		src:    src,
		logger: logger,
		now:    time.Now,
	}
}

// Period is an inclusive date range
type Period struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the period ending today and starting days ago
func (s *Service) LastDays(days int) Period {
	end := s.now().UTC()
	return Period{Start: end.AddDate(0, 0, -days), End: end}
}

// CampaignRows returns daily campaign report rows for orgID, or the active
// organization when orgID is empty
func (s *Service) CampaignRows(ctx context.Context, orgID string, period Period, granularity searchads.Granularity) ([]Row, error) {
	if period.End.Before(period.Start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			period.End.Format(searchads.ReportDateFormat), period.Start.Format(searchads.ReportDateFormat))
	}

	req := searchads.NewReportRequest(period.Start, period.End, granularity)
	raw, err := s.src.GetCampaignReport(ctx, orgID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign report: %w", err)
	}

	rows := FromReport(raw)
	for i := range rows {
		rows[i].OrgID = orgID
	}
	return rows, nil
}

// DailySpend returns spend per day over the last days, for the active
// organization or for every organization when allOrgs is set
func (s *Service) DailySpend(ctx context.Context, days int, allOrgs bool) ([]DailySpend, error) {
	if days <= 0 {
		return nil, errors.New("days must be positive")
	}

	return s.DailySpendBetween(ctx, s.LastDays(days), allOrgs)
}

// DailySpendBetween returns spend per day over period
func (s *Service) DailySpendBetween(ctx context.Context, period Period, allOrgs bool) ([]DailySpend, error) {
	rows, _, err := s.collect(ctx, period, allOrgs, false)
	if err != nil {
		return nil, err
	}
	return SumDaily(rows), nil
}

// DailySpendByApp returns spend per day and app over period
func (s *Service) DailySpendByApp(ctx context.Context, period Period, allOrgs bool) ([]AppSpend, error) {
	rows, appOf, err := s.collect(ctx, period, allOrgs, true)
	if err != nil {
		return nil, err
	}
	return SumDailyByApp(rows, appOf), nil
}

// collect gathers daily campaign rows for the selected organizations and,
// when withApps is set, the campaign to app mapping
func (s *Service) collect(ctx context.Context, period Period, allOrgs, withApps bool) ([]Row, map[string]string, error) {
	orgIDs, err := s.orgIDs(ctx, allOrgs)
	if err != nil {
		return nil, nil, err
	}

	var rows []Row
	appOf := make(map[string]string)

	for _, orgID := range orgIDs {
		if withApps {
			campaigns, err := s.src.GetCampaigns(ctx, orgID)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to get campaigns for organization %s: %w", orgID, err)
			}
			for _, c := range campaigns {
				appOf[c.ID.String()] = c.AdamID.String()
			}
		}

		orgRows, err := s.CampaignRows(ctx, orgID, period, searchads.GranularityDaily)
		if err != nil {
			return nil, nil, fmt.Errorf("organization %s: %w", orgID, err)
		}

		s.logger.Debug().
			Str("org_id", orgID).
			Int("rows", len(orgRows)).
			Msg("Collected campaign report rows")
		rows = append(rows, orgRows...)
	}

	return rows, appOf, nil
}

func (s *Service) orgIDs(ctx context.Context, allOrgs bool) ([]string, error) {
	if !allOrgs {
		// "" selects the client's active organization
		return []string{s.src.OrgID()}, nil
	}

	orgs, err := s.src.GetAllOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	ids := make([]string, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.OrgID.String())
	}
	return ids, nil
}
