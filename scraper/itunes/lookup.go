// Package itunes is a client for the public iTunes lookup endpoint.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"

	"shipscore/models"
	"shipscore/utils"
)

// JSONFetcher returns the raw body of a GET request.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, query map[string]string) ([]byte, error)
}

type lookupResponse struct {
	ResultCount int                `json:"resultCount"`
	Results     []models.AppRecord `json:"results"`
}

// Client looks apps up by numeric id.
type Client struct {
	fetcher JSONFetcher
	url     string
	country string
	logger  *utils.Logger
}

// New creates a Client. url is normally https://itunes.apple.com/lookup.
func New(fetcher JSONFetcher, url, country string, logger *utils.Logger) *Client {
	return &Client{fetcher: fetcher, url: url, country: country, logger: logger}
}

// Lookup returns the first result for appID tagged as an API record, or nil
// when the request fails, the body is not JSON, or nothing matched.
func (c *Client) Lookup(ctx context.Context, appID string) *models.AppRecord {
	body, err := c.fetcher.FetchJSON(ctx, c.url, map[string]string{
		"id":      appID,
		"country": c.country,
	})
	if err != nil {
		c.logger.Warn("[itunes] lookup failed for %s: %v", appID, err)
		return nil
	}

	record, err := decode(body)
	if err != nil {
		c.logger.Warn("[itunes] %s: %v", appID, err)
		return nil
	}
	if record == nil {
		c.logger.Debug("[itunes] no result for %s", appID)
		return nil
	}

	record.AppID = appID
	record.Platform = models.PlatformAppStore
	record.Source = models.SourceAPI
	return record
}

// decode parses a lookup body. The endpoint answers with text/javascript, so
// the body is decoded by hand rather than by content type.
func decode(body []byte) (*models.AppRecord, error) {
	var res lookupResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(res.Results) == 0 {
		return nil, nil
	}
	record := res.Results[0]
	return &record, nil
}
