package socrata

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/fetcher"
)

// fetchPage requests one page of a dataset resource as JSON.
func (c *Client) fetchPage(ctx context.Context, datasetID, where string, limit, offset int) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "socrata: rate limit")
	}

	params := url.Values{
		"$limit":  {strconv.Itoa(limit)},
		"$offset": {strconv.Itoa(offset)},
		"$order":  {":id"}, // stable paging order
	}
	if where != "" {
		params.Set("$where", where)
	}
	reqURL := c.baseURL + "/resource/" + datasetID + ".json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: build request")
	}
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "socrata: fetch %s", datasetID)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// Records pages through a dataset resource and calls handle once per decoded
// row. It returns the number of rows handled. A handle error aborts paging.
func Records[T any](ctx context.Context, c *Client, datasetID string, handle func(T) error) (int, error) {
	return RecordsWhere(ctx, c, datasetID, "", handle)
}

// RecordsWhere is Records with a SoQL $where clause pushed down to the
// portal, e.g. a bounding box on the dataset's lat/lon columns.
func RecordsWhere[T any](ctx context.Context, c *Client, datasetID, where string, handle func(T) error) (int, error) {
	total := 0
	for offset := 0; ; offset += c.pageSize {
		body, err := c.fetchPage(ctx, datasetID, where, c.pageSize, offset)
		if err != nil {
			return total, err
		}

		page, err := fetcher.CollectJSONArray[T](ctx, body)
		_ = body.Close()
		if err != nil {
			return total, eris.Wrapf(err, "socrata: decode %s page at offset %d", datasetID, offset)
		}

		for _, item := range page {
			if err := handle(item); err != nil {
				return total, err
			}
			total++
		}

		if len(page) < c.pageSize {
			return total, nil
		}
	}
}
