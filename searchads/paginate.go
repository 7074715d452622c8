package searchads

import (
	"context"
	"encoding/json"
	"strconv"
)

// PagedBody is implemented by request bodies that carry their own pagination,
// such as selectors and report requests. Paginate uses it instead of the
// offset/limit query parameters.
type PagedBody interface {
	WithPagination(offset, limit int) any
}

// PageDetail is the pagination block of list responses
type PageDetail struct {
	TotalResults int `json:"totalResults"`
	StartIndex   int `json:"startIndex"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type pageEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *PageDetail     `json:"pagination"`
}

// extractFunc pulls the records out of a response's data field
type extractFunc func(data json.RawMessage) ([]json.RawMessage, error)

// Paginate issues req repeatedly with increasing offsets and returns the
// concatenated data arrays of every page, in order. pageSize is capped at
// DefaultPageSize. It stops once the reported total has been read or, without
// a total, after a page shorter than pageSize. An error on any page discards
// everything fetched so far.
func (c *Client) Paginate(ctx context.Context, req Request, pageSize int) ([]json.RawMessage, error) {
	return c.paginate(ctx, req, pageSize, extractDataArray)
}

// PaginateAs is Paginate decoding each record into T
func PaginateAs[T any](ctx context.Context, c *Client, req Request, pageSize int) ([]T, error) {
	raw, err := c.Paginate(ctx, req, pageSize)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, newError(KindUnknown, req.Method+" "+req.Path, "failed to decode record", err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) paginate(ctx context.Context, req Request, pageSize int, extract extractFunc) ([]json.RawMessage, error) {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	pageSize = min(pageSize, DefaultPageSize)

	var records []json.RawMessage
	offset := 0
	for page := 1; ; page++ {
		data, err := c.Execute(ctx, withPage(req, offset, pageSize))
		if err != nil {
			return nil, err
		}

		var env pageEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, newError(KindUnknown, req.Method+" "+req.Path, "malformed page", err)
		}

		items, err := extract(env.Data)
		if err != nil {
			return nil, newError(KindUnknown, req.Method+" "+req.Path, "malformed page data", err)
		}
		records = append(records, items...)
		offset += len(items)

		c.logger.Debug().
			Str("path", req.Path).
			Int("page", page).
			Int("count", len(items)).
			Int("total", len(records)).
			Msg("Retrieved page")

		if len(items) == 0 {
			break
		}
		if env.Pagination != nil && env.Pagination.TotalResults > 0 {
			// the server may serve fewer records than asked for
			if offset >= env.Pagination.TotalResults {
				break
			}
			continue
		}
		if len(items) < pageSize {
			break
		}
	}

	return records, nil
}

// withPage returns a copy of req addressing the page at offset
func withPage(req Request, offset, limit int) Request {
	if body, ok := req.Body.(PagedBody); ok {
		req.Body = body.WithPagination(offset, limit)
		return req
	}

	query := make(map[string][]string, len(req.Query)+2)
	for k, v := range req.Query {
		query[k] = append([]string(nil), v...)
	}
	query["offset"] = []string{strconv.Itoa(offset)}
	query["limit"] = []string{strconv.Itoa(limit)}
	req.Query = query
	return req
}

func extractDataArray(data json.RawMessage) ([]json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
