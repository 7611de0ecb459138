package scraper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SoftwareApp is the subset of a schema.org SoftwareApplication block that
// storefront pages embed as JSON-LD. Optional numbers are pointers so that a
// missing value can be told apart from zero.
type SoftwareApp struct {
	Type            string
	Name            string
	Description     string
	Category        string
	OperatingSystem string
	SoftwareVersion string
	DatePublished   string
	DateModified    string
	AuthorName      string
	ImageURL        string
	ScreenshotURLs  []string
	RatingValue     *float64
	RatingCount     *int64
	Price           *float64
	PriceCurrency   string
}

var softwareTypes = map[string]bool{
	"SoftwareApplication": true,
	"MobileApplication":   true,
	"VideoGame":           true,
	"WebApplication":      true,
}

// FindSoftwareApp returns the first SoftwareApplication-like JSON-LD block on
// the page. Blocks that fail to decode are skipped; ok is false when none fit.
func FindSoftwareApp(doc *goquery.Document) (app *SoftwareApp, ok bool) {
	var fallback *SoftwareApp

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, obj := range ldObjects([]byte(strings.TrimSpace(s.Text()))) {
			candidate := decodeSoftwareApp(obj)
			if candidate == nil {
				continue
			}
			if softwareTypes[candidate.Type] {
				app = candidate
				return false
			}
			if fallback == nil && candidate.Name != "" {
				fallback = candidate
			}
		}
		return true
	})

	if app != nil {
		return app, true
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}

// ldObjects flattens a JSON-LD payload (object, array, or @graph) into its
// top-level objects.
func ldObjects(data []byte) []map[string]json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		var out []map[string]json.RawMessage
		for _, item := range items {
			out = append(out, ldObjects(item)...)
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	if graph, ok := obj["@graph"]; ok {
		return ldObjects(graph)
	}
	return []map[string]json.RawMessage{obj}
}

func decodeSoftwareApp(obj map[string]json.RawMessage) *SoftwareApp {
	if len(obj) == 0 {
		return nil
	}

	app := &SoftwareApp{
		Type:            firstString(obj["@type"]),
		Name:            rawString(obj["name"]),
		Description:     rawString(obj["description"]),
		Category:        firstString(obj["applicationCategory"]),
		OperatingSystem: rawString(obj["operatingSystem"]),
		SoftwareVersion: rawString(obj["softwareVersion"]),
		DatePublished:   rawString(obj["datePublished"]),
		DateModified:    rawString(obj["dateModified"]),
		AuthorName:      nestedName(obj["author"]),
		ImageURL:        imageURL(obj["image"]),
		ScreenshotURLs:  imageURLs(obj["screenshot"]),
	}

	var rating map[string]json.RawMessage
	if raw, ok := obj["aggregateRating"]; ok && json.Unmarshal(raw, &rating) == nil {
		app.RatingValue = rawFloat(rating["ratingValue"])
		if n := rawFloat(rating["ratingCount"]); n != nil {
			c := int64(*n)
			app.RatingCount = &c
		} else if n := rawFloat(rating["reviewCount"]); n != nil {
			c := int64(*n)
			app.RatingCount = &c
		}
	}

	if raw, ok := obj["offers"]; ok {
		offers := ldObjects(raw)
		if len(offers) > 0 {
			app.Price = rawFloat(offers[0]["price"])
			app.PriceCurrency = rawString(offers[0]["priceCurrency"])
		}
	}

	return app
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// firstString handles fields that may be a string or an array of strings.
func firstString(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

// rawFloat accepts numbers and numeric strings ("4.7", "1,234").
func rawFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	s := strings.ReplaceAll(rawString(raw), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func nestedName(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	for _, obj := range ldObjects(raw) {
		if name := rawString(obj["name"]); name != "" {
			return name
		}
	}
	return ""
}

func imageURL(raw json.RawMessage) string {
	urls := imageURLs(raw)
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// imageURLs handles "url", {"url": ...}, and arrays of either.
func imageURLs(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if s := rawString(raw); s != "" {
		return []string{s}
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		var out []string
		for _, item := range items {
			out = append(out, imageURLs(item)...)
		}
		return out
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	if u := rawString(obj["url"]); u != "" {
		return []string{u}
	}
	if u := rawString(obj["contentUrl"]); u != "" {
		return []string{u}
	}
	return nil
}
