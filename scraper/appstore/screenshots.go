package appstore

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// bare mzstatic thumbnail URLs anywhere in the markup, scripts included
	bareImageRegexp = regexp.MustCompile(`https://is\d+-ssl\.mzstatic\.com/image/thumb/[^"'\s<>,\\)]+`)
	// /v4/<hh>/<hh>/<hh>/<uuid>/<original file>: one screenshot, any rendition
	imageIdentityRegexp = regexp.MustCompile(`(?i)/v4/([a-f0-9]{2}/[a-f0-9]{2}/[a-f0-9]{2}/[a-f0-9-]+/[^/]+\.[a-z0-9]+)`)
	tabletHintRegexp    = regexp.MustCompile(`(?i)ipad|tablet|[^a-z]pad[^a-z]`)
)

// native iPad screenshot resolutions, either orientation
var tabletResolutions = []string{
	"2048x2732", "2732x2048",
	"2064x2752", "2752x2064",
	"1668x2388", "2388x1668",
	"1668x2224", "2224x1668",
	"1640x2360", "2360x1640",
	"1536x2048", "2048x1536",
}

// screenshotSet collects screenshot URLs, collapsing renditions of the same
// image and keeping first-seen order per device class.
type screenshotSet struct {
	seen   map[string]struct{}
	phone  []string
	tablet []string
}

func newScreenshotSet() *screenshotSet {
	return &screenshotSet{seen: make(map[string]struct{})}
}

func (s *screenshotSet) add(u string) {
	u = strings.TrimSpace(u)
	if !isScreenshot(u) {
		return
	}
	id := imageIdentity(u)
	if _, dup := s.seen[id]; dup {
		return
	}
	s.seen[id] = struct{}{}

	if isTabletScreenshot(u) {
		s.tablet = append(s.tablet, u)
	} else {
		s.phone = append(s.phone, u)
	}
}

// collectScreenshots runs the srcset pass and then the bare-URL pass.
func collectScreenshots(doc *goquery.Document, page string) *screenshotSet {
	set := newScreenshotSet()

	doc.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		for _, candidate := range strings.Split(s.AttrOr("srcset", ""), ",") {
			fields := strings.Fields(candidate)
			if len(fields) > 0 {
				set.add(fields[0])
			}
		}
	})

	for _, u := range bareImageRegexp.FindAllString(page, -1) {
		set.add(u)
	}

	return set
}

func isScreenshot(u string) bool {
	if !strings.HasPrefix(u, "https://") || !strings.Contains(u, "/image/thumb/") {
		return false
	}
	if !strings.Contains(u, "PurpleSource") {
		return false
	}
	for _, noise := range []string{"Placeholder", "AppIcon", "{w}", "{h}", "{f}", "%7Bw%7D"} {
		if strings.Contains(u, noise) {
			return false
		}
	}
	return true
}

// imageIdentity is the part of the URL shared by every size/format variant
// of one screenshot: the hash path plus original file name, or failing that
// the URL with its trailing rendition segment removed.
func imageIdentity(u string) string {
	if m := imageIdentityRegexp.FindStringSubmatch(u); m != nil {
		return strings.ToLower(m[1])
	}
	if i := strings.LastIndex(u, "/"); i > len("https://") {
		return u[:i]
	}
	return u
}

func isTabletScreenshot(u string) bool {
	if tabletHintRegexp.MatchString(u) {
		return true
	}
	for _, res := range tabletResolutions {
		if strings.Contains(u, res) {
			return true
		}
	}
	return false
}
