package services

import (
	"fmt"
	"regexp"
	"strings"

	"shipscore/models"
)

var (
	bareAppIDRegexp     = regexp.MustCompile(`^\d+$`)
	appStoreURLRegexp   = regexp.MustCompile(`(?i)(?:apps|itunes)\.apple\.com(?:/.*?)?/id(\d+)`)
	playPackageIDRegexp = regexp.MustCompile(`[?&]id=([a-zA-Z0-9._]+)`)
)

// Target is a routed analyze request: which storefront, and the app's id on it.
type Target struct {
	Platform models.Platform
	ID       string
}

// Route classifies raw as a Google Play listing, an App Store product page,
// or a bare App Store id. It never touches the network.
func Route(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	if strings.Contains(raw, "play.google.com") {
		m := playPackageIDRegexp.FindStringSubmatch(raw)
		if m == nil {
			return Target{}, fmt.Errorf("%w: Google Play url has no id= parameter", ErrInvalidURL)
		}
		return Target{Platform: models.PlatformGooglePlay, ID: m[1]}, nil
	}

	if bareAppIDRegexp.MatchString(raw) {
		return Target{Platform: models.PlatformAppStore, ID: raw}, nil
	}

	if m := appStoreURLRegexp.FindStringSubmatch(raw); m != nil {
		return Target{Platform: models.PlatformAppStore, ID: m[1]}, nil
	}

	return Target{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
}
