// Package searchads provides a client for the Apple Search Ads Campaign
// Management API.
//
// The client authenticates with an ES256-signed client assertion, exchanges it
// for an OAuth access token and caches the token until shortly before it
// expires. Every request goes through a single executor that attaches the
// token and organization context, holds the client to 10 requests per second,
// retries transport failures and maps error responses to typed errors.
//
// # Usage
//
// Credentials come from options or the APPLE_SEARCH_ADS_* environment
// variables:
//
//	client, err := searchads.NewClient(
//		searchads.WithCredentials(clientID, teamID, keyID),
//		searchads.WithPrivateKeyPath("private-key.pem"),
//		searchads.WithOrgID("123456"),
//		searchads.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	campaigns, err := client.GetCampaigns(ctx, "")
//
// Endpoints that are not wrapped can be called through Execute, Do or
// Paginate:
//
//	var resp struct {
//		Data searchads.Campaign `json:"data"`
//	}
//	err := client.Do(ctx, searchads.Request{
//		Method:    http.MethodGet,
//		Path:      "/campaigns/42",
//		OrgScoped: true,
//	}, &resp)
//
// # Error Handling
//
// All errors returned by the client are *Error values with an ErrorKind.
// Match them with errors.Is against the sentinels:
//
//   - ErrConfiguration: missing or invalid credentials
//   - ErrAuthentication: token exchange failed or token rejected (401)
//   - ErrRateLimited: the API answered 429; RetryAfter holds the hint
//   - ErrInvalidRequest: any other 4xx
//   - ErrOrganizationNotFound: an org-scoped call without an organization
//   - ErrSearchAds: matches every error of this package
package searchads
