package searchads

import (
	"context"
	"fmt"
	"net/http"
)

// GetAllOrganizations returns every organization the credentials can access.
// The call is not org-scoped.
func (c *Client) GetAllOrganizations(ctx context.Context) ([]Organization, error) {
	var resp struct {
		Data []Organization `json:"data"`
	}
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/acls"}, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(resp.Data)).Msg("Retrieved organizations")
	return resp.Data, nil
}

// EnsureOrganization returns the active organization. If none is set and the
// credentials can access exactly one organization, that organization becomes
// active.
func (c *Client) EnsureOrganization(ctx context.Context) (string, error) {
	if orgID := c.OrgID(); orgID != "" {
		return orgID, nil
	}

	orgs, err := c.GetAllOrganizations(ctx)
	if err != nil {
		return "", err
	}

	switch len(orgs) {
	case 0:
		return "", newError(KindOrganizationNotFound, "ensure organization",
			"no organizations accessible with these credentials", nil)
	case 1:
		orgID := orgs[0].OrgID.String()
		c.SetOrgID(orgID)
		c.logger.Info().
			Str("org_id", orgID).
			Str("org_name", orgs[0].OrgName).
			Msg("Using sole accessible organization")
		return orgID, nil
	default:
		return "", newError(KindOrganizationNotFound, "ensure organization",
			fmt.Sprintf("%d organizations accessible; set one with SetOrgID or %s", len(orgs), EnvOrgID), nil)
	}
}
