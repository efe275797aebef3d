package booking

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/pkg/doctolib"
)

var (
	// ErrBadProfileURL means the input couldn't be reduced to a profile slug.
	ErrBadProfileURL = errors.New("profile URL must have type/city/slug path segments")
	// ErrUnresolved marks profiles whose payload can't back a Practitioner.
	ErrUnresolved = errors.New("profile could not be resolved")
)

// ParseProfilePath recovers the profile slug from a full profile URL or a
// bare slug. URLs are stripped of query parameters and host; the remaining
// path must be exactly type/city/slug.
func ParseProfilePath(urlOrSlug string) (string, error) {
	s := strings.TrimSpace(urlOrSlug)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrBadProfileURL)
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadProfileURL, err)
		}
		s = u.Path
	}
	s = strings.Trim(s, "/")
	if s == "" {
		return "", fmt.Errorf("%w: no path segments", ErrBadProfileURL)
	}
	if !strings.Contains(s, "/") {
		// Bare slug.
		return s, nil
	}
	segments := strings.Split(s, "/")
	if len(segments) != 3 {
		return "", fmt.Errorf("%w: got %d segments in %q", ErrBadProfileURL, len(segments), s)
	}
	return segments[2], nil
}

// ProfileURL builds the lookup endpoint for a slug.
func ProfileURL(slug string) string {
	return doctolib.BaseURL + "/online_booking/draft/new.json?id=" + url.QueryEscape(slug)
}

// ResolveProfile fetches the raw profile payload for a profile URL or slug.
// Individual profiles must carry a speciality, at least one visit motive and
// at least one agenda; anything else resolves to ErrUnresolved, which is a
// common case (deactivated or mistyped profiles), not an exceptional one.
// Organization payloads pass through for the caller to expand.
func ResolveProfile(client *doctolib.Client, urlOrSlug string, maxAge time.Duration) (string, gjson.Result, error) {
	slug, err := ParseProfilePath(urlOrSlug)
	if err != nil {
		return "", gjson.Result{}, err
	}
	profile, err := client.FetchJSONCached(ProfileURL(slug), maxAge)
	if err != nil {
		return "", gjson.Result{}, err
	}
	if IsOrganization(profile) {
		return slug, profile, nil
	}
	if !profileUsable(profile) {
		return "", gjson.Result{}, fmt.Errorf("%w: %s", ErrUnresolved, slug)
	}
	return slug, profile, nil
}

func profileUsable(profile gjson.Result) bool {
	data := profile.Get("data")
	return len(data.Get("specialities").Array()) > 0 &&
		len(data.Get("visit_motives").Array()) > 0 &&
		len(data.Get("agendas").Array()) > 0
}
