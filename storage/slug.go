package storage

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, replaces every run of characters outside [a-z0-9]
// with a single dash and trims dashes from both ends.
func Slugify(s string) string {
	s = nonSlugRegexp.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// slugOwner reports which app id currently holds slug, if any.
type slugOwner func(slug string) (appID string, found bool, err error)

// assignSlug picks the slug for an app. The name's slug is used unless a
// different app already holds it; then the app id is appended, and if that is
// taken too a counter follows ("-2", "-3", ...) until a free slug is found.
func assignSlug(name, appID string, owner slugOwner) (string, error) {
	idSlug := Slugify(appID)
	base := Slugify(name)
	if base == "" {
		base, idSlug = idSlug, ""
	}

	candidates := []string{base}
	if idSlug != "" {
		base += "-" + idSlug
		candidates = append(candidates, base)
	}
	for n := 2; ; {
		var slug string
		if len(candidates) > 0 {
			slug, candidates = candidates[0], candidates[1:]
		} else {
			slug = base + "-" + strconv.Itoa(n)
			n++
		}

		holder, found, err := owner(slug)
		if err != nil {
			return "", err
		}
		if !found || holder == appID {
			return slug, nil
		}
	}
}
