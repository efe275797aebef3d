package booking

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/pkg/doctolib"
)

// IsOrganization reports whether the payload belongs to a group practice:
// those carry a member-profile listing grouped by speciality slug instead of
// bookable data of their own.
func IsOrganization(profile gjson.Result) bool {
	groups := profile.Get("data.profiles")
	return groups.IsObject() && len(groups.Map()) > 0
}

// MemberLinks walks the organization's grouped member listing and keeps the
// links whose path has exactly type/city/slug segments with a wanted type
// slug. Returned URLs are fully qualified; Practitioner construction is left
// to the caller, symmetric with direct-URL discovery.
func MemberLinks(profile gjson.Result, wantedTypes []string) []string {
	wanted := make(map[string]bool, len(wantedTypes))
	for _, t := range wantedTypes {
		wanted[Slugify(t)] = true
	}

	var out []string
	profile.Get("data.profiles").ForEach(func(_, members gjson.Result) bool {
		for _, member := range members.Array() {
			link := strings.Trim(member.Get("link").String(), "/")
			if link == "" {
				continue
			}
			segments := strings.Split(link, "/")
			if len(segments) != 3 || !wanted[Slugify(segments[0])] {
				continue
			}
			out = append(out, doctolib.BaseURL+"/"+link)
		}
		return true
	})
	return out
}

// MemberType returns the type slug of a member URL produced by MemberLinks,
// i.e. the first path segment after the host.
func MemberType(memberURL string) string {
	path := strings.Trim(strings.TrimPrefix(memberURL, doctolib.BaseURL), "/")
	segments := strings.Split(path, "/")
	if len(segments) != 3 {
		return ""
	}
	return segments[0]
}
