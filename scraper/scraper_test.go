package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestFindSoftwareApp(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{"@type":"BreadcrumbList","name":"crumbs"}</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "SoftwareApplication",
  "name": "Focus Timer Pro",
  "description": "Stay focused.",
  "image": {"@type": "ImageObject", "url": "https://is1-ssl.mzstatic.com/icon.png"},
  "author": {"@type": "Person", "name": "Acme Labs"},
  "applicationCategory": "Productivity",
  "operatingSystem": "Requires iOS 16.0 or later.",
  "softwareVersion": "4.2.0",
  "datePublished": "Jan 5, 2019",
  "aggregateRating": {"@type": "AggregateRating", "ratingValue": "4.7", "reviewCount": 1234},
  "offers": {"@type": "Offer", "price": 2.99, "priceCurrency": "USD"}
}
</script></head><body></body></html>`

	app, ok := FindSoftwareApp(docFrom(t, page))
	require.True(t, ok)

	assert.Equal(t, "SoftwareApplication", app.Type)
	assert.Equal(t, "Focus Timer Pro", app.Name)
	assert.Equal(t, "Acme Labs", app.AuthorName)
	assert.Equal(t, "https://is1-ssl.mzstatic.com/icon.png", app.ImageURL)
	assert.Equal(t, "Productivity", app.Category)
	assert.Equal(t, "4.2.0", app.SoftwareVersion)
	require.NotNil(t, app.RatingValue)
	assert.InDelta(t, 4.7, *app.RatingValue, 1e-9)
	require.NotNil(t, app.RatingCount)
	assert.Equal(t, int64(1234), *app.RatingCount)
	require.NotNil(t, app.Price)
	assert.InDelta(t, 2.99, *app.Price, 1e-9)
}

func TestFindSoftwareAppSkipsBrokenBlocks(t *testing.T) {
	page := `<script type="application/ld+json">{ not json </script>
<script type="application/ld+json">[{"@type":["MobileApplication"],"name":"Graph App"}]</script>`

	app, ok := FindSoftwareApp(docFrom(t, page))
	require.True(t, ok)
	assert.Equal(t, "Graph App", app.Name)
	assert.Nil(t, app.RatingValue)
	assert.Nil(t, app.Price)
}

func TestFindSoftwareAppNone(t *testing.T) {
	_, ok := FindSoftwareApp(docFrom(t, `<html><body><p>nothing</p></body></html>`))
	assert.False(t, ok)
}

func TestStripTags(t *testing.T) {
	got := StripTags(`<p>Bug fixes and   <b>speed</b> improvements.</p><p>New widget!<br>Enjoy</p>`)
	assert.Equal(t, "Bug fixes and speed improvements.\nNew widget!\nEnjoy", got)
}

func TestParseFileSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"Size 12 KB", 12 * 1024, true},
		{"245.3 MB", 257215693, true},
		{"1.2 GB", 1288490189, true},
		{"1,234 MB", 1234 * 1024 * 1024, true},
		{"Size: 1,234.5 KB", 1264128, true},
		{"48,2 MB", 50541363, true},
		{"no size here", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFileSize(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    float64
		currency string
		want     string
	}{
		{0, "EUR", "Free"},
		{4.99, "", "$4.99"},
		{4.99, "usd", "$4.99"},
		{3.49, "EUR", "€3.49"},
		{2.5, "GBP", "£2.50"},
		{600, "JPY", "¥600"},
		{19.9, "BRL", "19.90 BRL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.price, tt.currency), "%v %s", tt.price, tt.currency)
	}
}

func TestClientFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := NewClient("test-agent", 5*time.Second)

	body, err := c.FetchPage(context.Background(), srv.URL+"/app")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)

	_, err = c.FetchPage(context.Background(), srv.URL+"/missing")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
}
