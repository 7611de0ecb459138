// Package scraper holds what the storefront extractors share: the HTTP page
// fetcher, JSON-LD decoding and markup text helpers.
//
// Each extractor follows the same shape: validate the id, build the request,
// fetch, check the response, then turn the body into a record with goquery
// selectors. A failed fetch is reported to the caller, which decides whether
// that means "source unavailable" or a user-visible error.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("shipscore/scraper")

// PageFetcher returns the HTML of a storefront page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// StatusError is returned when the storefront answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scraper: GET %s: status %d", e.URL, e.Status)
}

// Client fetches pages and JSON documents over plain HTTP.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client that sends browser-like headers.
// No retry policy is configured: a failed fetch is final.
func NewClient(userAgent string, timeout time.Duration) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeaders(map[string]string{
			"User-Agent":      userAgent,
			"Accept-Language": "en-US,en;q=0.9",
		})
	return &Client{http: c}
}

// FetchPage GETs url and returns the body as text.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url, nil, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchJSON GETs url with the given query and returns the raw body.
func (c *Client) FetchJSON(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	return c.get(ctx, url, query, "application/json, text/javascript")
}

func (c *Client) get(ctx context.Context, url string, query map[string]string, accept string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "scraper.get")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", accept)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	res, err := req.Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("scraper: GET %s: %w", url, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode()))

	if !res.IsSuccess() {
		err := &StatusError{URL: url, Status: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.Body(), nil
}
