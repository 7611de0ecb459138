package appstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipscore/utils"
)

const shotBase = "https://is1-ssl.mzstatic.com/image/thumb/PurpleSource211/v4/0a/1b/2c/0a1b2c3d-aaaa-bbbb-cccc-0123456789ab"

func phoneShot(i int, rendition string) string {
	return fmt.Sprintf("%s/Phone_%02d.png/%s", shotBase, i, rendition)
}

func tabletShot(i int, rendition string) string {
	return fmt.Sprintf("%s/iPad_Pro_%02d.png/%s", shotBase, i, rendition)
}

func productPage() string {
	var b strings.Builder
	b.WriteString(`<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"SoftwareApplication","name":"Focus Timer Pro",
 "description":"Stay focused.\n\nBuild habits.","image":"https://is1-ssl.mzstatic.com/image/thumb/Purple/icon/512x512bb.png",
 "author":{"@type":"Person","name":"Acme Labs"},"applicationCategory":"GameCategory",
 "operatingSystem":"Requires iOS 16.0 or later.","datePublished":"Jan 5, 2019",
 "aggregateRating":{"@type":"AggregateRating","ratingValue":4.6,"reviewCount":3200},
 "offers":{"@type":"Offer","price":0,"priceCurrency":"USD"}}
</script></head><body>`)

	// Each screenshot appears in three renditions: two srcset candidates and
	// one bare URL in an inline script.
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, `<picture><source srcset="%s 300w, %s 600w"></picture>`,
			phoneShot(i, "300x650bb.webp"), phoneShot(i, "600x1300bb.webp"))
	}
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b, `<picture><source srcset="%s 1x"></picture>`, tabletShot(i, "576x768bb.webp"))
	}
	b.WriteString(`<script>var data = {"shots":[`)
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, `"%s",`, phoneShot(i, "1242x2688bb.jpg"))
	}
	b.WriteString(`"https://is1-ssl.mzstatic.com/image/thumb/PurpleSource211/v4/aa/bb/cc/Placeholder.png/{w}x{h}bb.{f}"]};</script>`)

	b.WriteString(`
<video src="https://example-cdn.apple.com/preview/video1.m3u8"></video>
<section class="whats-new">
  <h2>What’s New</h2>
  <time datetime="2024-03-01T00:00:00.000Z">Mar 1, 2024</time>
  <p>Bug fixes and performance improvements.<br>New focus widget.</p>
</section>
<section class="privacy">
  <span class="privacy-type__grid-content">Data Not Collected</span>
  <span class="privacy-type__grid-content">Data Not Collected</span>
</section>
<dl class="information-list">
  <dt>Size</dt><dd>48.2 MB</dd>
  <dt>Age Rating</dt><dd>Rated 12+ Infrequent Mild Violence</dd>
</dl>
<a class="link" href="https://acme.example.com">Developer Website</a>
<div class="we-star-bar-graph__row"><span class="we-star-bar-graph__stars we-star-bar-graph__stars--5"></span><div class="we-star-bar-graph__bar"><div class="we-star-bar-graph__bar__foreground-bar" style="width: 72%;"></div></div></div>
<div class="we-star-bar-graph__row"><span class="we-star-bar-graph__stars we-star-bar-graph__stars--1"></span><div class="we-star-bar-graph__bar"><div class="we-star-bar-graph__bar__foreground-bar" style="width: 3.5%;"></div></div></div>
</body></html>`)
	return b.String()
}

func TestParseProductPage(t *testing.T) {
	r, err := Parse(productPage(), "https://apps.apple.com/us/app/id123")
	require.NoError(t, err)

	require.NotNil(t, r.TrackName)
	assert.Equal(t, "Focus Timer Pro", *r.TrackName)
	require.NotNil(t, r.ArtistName)
	assert.Equal(t, "Acme Labs", *r.ArtistName)
	require.NotNil(t, r.PrimaryGenreName)
	assert.Equal(t, "Games", *r.PrimaryGenreName)
	assert.Equal(t, []string{"Games"}, r.Genres)
	require.NotNil(t, r.FormattedPrice)
	assert.Equal(t, "Free", *r.FormattedPrice)
	require.NotNil(t, r.UserRatingCount)
	assert.Equal(t, int64(3200), *r.UserRatingCount)
	require.NotNil(t, r.ReleaseDate)
	assert.Equal(t, "2019-01-05T00:00:00Z", *r.ReleaseDate)

	// 4 phone screenshots x 3 renditions collapse to 4, in first-seen order.
	require.Len(t, r.ScreenshotURLs, 4)
	assert.Equal(t, phoneShot(1, "300x650bb.webp"), r.ScreenshotURLs[0])
	assert.Equal(t, phoneShot(4, "300x650bb.webp"), r.ScreenshotURLs[3])
	require.Len(t, r.IPadScreenshotURLs, 2)

	assert.Equal(t, []string{"https://example-cdn.apple.com/preview/video1.m3u8"}, r.PreviewURLs)

	require.NotNil(t, r.WhatsNew)
	assert.Equal(t, "Bug fixes and performance improvements.\nNew focus widget.", *r.WhatsNew)
	require.NotNil(t, r.ReleaseNotes)
	assert.Equal(t, *r.WhatsNew, *r.ReleaseNotes)

	assert.Equal(t, []string{"Data Not Collected"}, r.PrivacyLabels)

	require.NotNil(t, r.FileSizeBytes)
	assert.Equal(t, int64(50541363), *r.FileSizeBytes)
	require.NotNil(t, r.TrackContentRating)
	assert.Equal(t, "12+", *r.TrackContentRating)
	require.NotNil(t, r.SellerURL)
	assert.Equal(t, "https://acme.example.com", *r.SellerURL)
	require.NotNil(t, r.CurrentVersionReleaseDate)
	assert.Equal(t, "2024-03-01T00:00:00Z", *r.CurrentVersionReleaseDate)

	assert.Equal(t, map[string]float64{"5": 72, "1": 3.5}, r.RatingsHistogram)
}

func TestParseEmptyPageLeavesFieldsUnset(t *testing.T) {
	r, err := Parse(`<html><body><p>Nothing to see</p></body></html>`, "")
	require.NoError(t, err)

	assert.Nil(t, r.TrackName)
	assert.Nil(t, r.ScreenshotURLs)
	assert.Nil(t, r.IPadScreenshotURLs)
	assert.Nil(t, r.PrivacyLabels)
	assert.Nil(t, r.FileSizeBytes)
	assert.Nil(t, r.TrackViewURL)
}

func TestParsePaidPriceUsesOfferCurrency(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
{"@type":"SoftwareApplication","name":"Ledger","offers":{"price":"3.49","priceCurrency":"EUR"}}
</script></head><body></body></html>`
	r, err := Parse(page, "https://apps.apple.com/de/app/id9")
	require.NoError(t, err)

	require.NotNil(t, r.Price)
	assert.Equal(t, 3.49, *r.Price)
	require.NotNil(t, r.FormattedPrice)
	assert.Equal(t, "€3.49", *r.FormattedPrice)
}

func TestImageIdentity(t *testing.T) {
	a := phoneShot(1, "300x650bb.webp")
	b := phoneShot(1, "1242x2688bb.jpg")
	assert.Equal(t, imageIdentity(a), imageIdentity(b))
	assert.NotEqual(t, imageIdentity(a), imageIdentity(phoneShot(2, "300x650bb.webp")))

	odd := "https://is1-ssl.mzstatic.com/image/thumb/PurpleSource1/odd/shot.png/300x650bb.jpg"
	assert.Equal(t, "https://is1-ssl.mzstatic.com/image/thumb/PurpleSource1/odd/shot.png", imageIdentity(odd))
}

func TestIsTabletScreenshot(t *testing.T) {
	assert.True(t, isTabletScreenshot(tabletShot(1, "576x768bb.webp")))
	assert.True(t, isTabletScreenshot(shotBase+"/Screen.png/2048x2732bb.png"))
	assert.False(t, isTabletScreenshot(phoneShot(1, "300x650bb.webp")))
}

type stubFetcher struct {
	page string
	err  error
	url  string
}

func (f *stubFetcher) FetchPage(_ context.Context, url string) (string, error) {
	f.url = url
	return f.page, f.err
}

func TestExtract(t *testing.T) {
	f := &stubFetcher{page: productPage()}
	e := New(f, "https://apps.apple.com/", "us", utils.NewNopLogger())

	r := e.Extract(context.Background(), "123")
	require.NotNil(t, r)
	assert.Equal(t, "https://apps.apple.com/us/app/id123", f.url)
	require.NotNil(t, r.TrackViewURL)
	assert.Equal(t, f.url, *r.TrackViewURL)
}

func TestExtractFetchFailureIsNil(t *testing.T) {
	e := New(&stubFetcher{err: errors.New("boom")}, "https://apps.apple.com", "us", utils.NewNopLogger())
	assert.Nil(t, e.Extract(context.Background(), "123"))
}
