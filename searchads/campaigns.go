package searchads

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// DefaultOrgConcurrency bounds how many organizations GetAllCampaigns
// fetches at once
const DefaultOrgConcurrency = 3

// GetCampaigns returns every campaign of orgID, or of the active organization
// when orgID is empty. Each campaign records the organization it was fetched
// under in FetchedOrgID.
func (c *Client) GetCampaigns(ctx context.Context, orgID string) ([]Campaign, error) {
	orgID = firstNonEmpty(orgID, c.OrgID())

	campaigns, err := PaginateAs[Campaign](ctx, c, Request{
		Method:    http.MethodGet,
		Path:      "/campaigns",
		OrgScoped: true,
		OrgID:     orgID,
	}, c.pageSize)
	if err != nil {
		return nil, err
	}

	for i := range campaigns {
		campaigns[i].FetchedOrgID = ID(orgID)
	}

	c.logger.Debug().
		Str("org_id", orgID).
		Int("count", len(campaigns)).
		Msg("Retrieved campaigns")
	return campaigns, nil
}

// GetAllCampaigns returns the campaigns of every accessible organization,
// annotated with the organization name. Results keep the order of
// GetAllOrganizations. Any organization failing fails the whole call.
func (c *Client) GetAllCampaigns(ctx context.Context) ([]Campaign, error) {
	orgs, err := c.GetAllOrganizations(ctx)
	if err != nil {
		return nil, err
	}

	perOrg := make([][]Campaign, len(orgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultOrgConcurrency)

	for i, org := range orgs {
		g.Go(func() error {
			campaigns, err := c.GetCampaigns(ctx, org.OrgID.String())
			if err != nil {
				return fmt.Errorf("organization %s (%s): %w", org.OrgID, org.OrgName, err)
			}
			for j := range campaigns {
				campaigns[j].OrgName = org.OrgName
			}
			perOrg[i] = campaigns
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Campaign
	for _, campaigns := range perOrg {
		all = append(all, campaigns...)
	}

	c.logger.Debug().
		Int("organizations", len(orgs)).
		Int("count", len(all)).
		Msg("Retrieved campaigns across organizations")
	return all, nil
}

// GetAdGroups returns every ad group of a campaign in the active organization
func (c *Client) GetAdGroups(ctx context.Context, campaignID string) ([]AdGroup, error) {
	if campaignID == "" {
		return nil, newError(KindInvalidRequest, "get ad groups", "campaign id is required", nil)
	}
	return PaginateAs[AdGroup](ctx, c, Request{
		Method:    http.MethodGet,
		Path:      "/campaigns/" + url.PathEscape(campaignID) + "/adgroups",
		OrgScoped: true,
	}, c.pageSize)
}

// FindCampaigns returns the campaigns matching selector in the active organization
func (c *Client) FindCampaigns(ctx context.Context, selector Selector) ([]Campaign, error) {
	return PaginateAs[Campaign](ctx, c, Request{
		Method:    http.MethodPost,
		Path:      "/campaigns/find",
		Body:      selector,
		OrgScoped: true,
	}, c.pageSize)
}
