package searchads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

type reportEnvelope struct {
	ReportingDataResponse struct {
		Row         []json.RawMessage `json:"row"`
		GrandTotals json.RawMessage   `json:"grandTotals,omitempty"`
	} `json:"reportingDataResponse"`
}

// extractReportRows pulls rows out of data.reportingDataResponse.row
func extractReportRows(data json.RawMessage) ([]json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env reportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.ReportingDataResponse.Row, nil
}

// GetCampaignReport returns campaign-level report rows of orgID, or of the
// active organization when orgID is empty
func (c *Client) GetCampaignReport(ctx context.Context, orgID string, req ReportRequest) ([]ReportRow, error) {
	return c.report(ctx, "/reports/campaigns", orgID, req)
}

// GetAdGroupReport returns ad group report rows of a campaign
func (c *Client) GetAdGroupReport(ctx context.Context, campaignID string, req ReportRequest) ([]ReportRow, error) {
	if campaignID == "" {
		return nil, newError(KindInvalidRequest, "ad group report", "campaign id is required", nil)
	}
	return c.report(ctx, "/reports/campaigns/"+url.PathEscape(campaignID)+"/adgroups", "", req)
}

// GetKeywordReport returns keyword report rows of a campaign
func (c *Client) GetKeywordReport(ctx context.Context, campaignID string, req ReportRequest) ([]ReportRow, error) {
	if campaignID == "" {
		return nil, newError(KindInvalidRequest, "keyword report", "campaign id is required", nil)
	}
	return c.report(ctx, "/reports/campaigns/"+url.PathEscape(campaignID)+"/keywords", "", req)
}

// GetSearchTermReport returns search term report rows of a campaign
func (c *Client) GetSearchTermReport(ctx context.Context, campaignID string, req ReportRequest) ([]ReportRow, error) {
	if campaignID == "" {
		return nil, newError(KindInvalidRequest, "search term report", "campaign id is required", nil)
	}
	return c.report(ctx, "/reports/campaigns/"+url.PathEscape(campaignID)+"/searchterms", "", req)
}

func (c *Client) report(ctx context.Context, path, orgID string, req ReportRequest) ([]ReportRow, error) {
	if req.StartTime == "" || req.EndTime == "" {
		return nil, newError(KindInvalidRequest, "POST "+path, "report start and end dates are required", nil)
	}

	raw, err := c.paginate(ctx, Request{
		Method:    http.MethodPost,
		Path:      path,
		Body:      req,
		OrgScoped: true,
		OrgID:     orgID,
	}, c.pageSize, extractReportRows)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(raw))
	for _, r := range raw {
		var row ReportRow
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, newError(KindUnknown, "POST "+path, "failed to decode report row", err)
		}
		rows = append(rows, row)
	}

	c.logger.Debug().
		Str("path", path).
		Str("start", req.StartTime).
		Str("end", req.EndTime).
		Int("rows", len(rows)).
		Msg("Retrieved report")
	return rows, nil
}
