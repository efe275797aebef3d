package booking

import (
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

const orgProfile = `{
  "data": {
    "profiles": {
      "orl-oto-rhino-laryngologie": [
        {"name": "Dr Jane Doe", "link": "/orl-oto-rhino-laryngologie/toulouse/jane-doe"},
        {"name": "Dr John Roe", "link": "/orl-oto-rhino-laryngologie/toulouse/john-roe"}
      ],
      "allergologue": [
        {"name": "Dr Ann Poe", "link": "/allergologue/toulouse/ann-poe"}
      ],
      "autre": [
        {"name": "Broken", "link": "/only-two/segments"},
        {"name": "Empty", "link": ""}
      ]
    }
  }
}`

func TestIsOrganization(t *testing.T) {
	if !IsOrganization(gjson.Parse(orgProfile)) {
		t.Fatal("expected organization payload to be detected")
	}
	if IsOrganization(gjson.Parse(sampleProfile)) {
		t.Fatal("individual profile must not be detected as organization")
	}
}

func TestMemberLinksFiltersByTypeAndShape(t *testing.T) {
	got := MemberLinks(gjson.Parse(orgProfile), []string{"ORL oto rhino laryngologie", "orl-oto-rhino-laryngologie"})
	expected := []string{
		"https://www.doctolib.fr/orl-oto-rhino-laryngologie/toulouse/jane-doe",
		"https://www.doctolib.fr/orl-oto-rhino-laryngologie/toulouse/john-roe",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v", got)
	}
}

func TestMemberTypeFollowsEachLink(t *testing.T) {
	// An org found through one type's search can list members of another
	// wanted type; each member keeps the type from its own link.
	links := MemberLinks(gjson.Parse(orgProfile), []string{"orl-oto-rhino-laryngologie", "allergologue"})
	expected := map[string]string{
		"https://www.doctolib.fr/orl-oto-rhino-laryngologie/toulouse/jane-doe": "orl-oto-rhino-laryngologie",
		"https://www.doctolib.fr/orl-oto-rhino-laryngologie/toulouse/john-roe": "orl-oto-rhino-laryngologie",
		"https://www.doctolib.fr/allergologue/toulouse/ann-poe":                "allergologue",
	}
	if len(links) != len(expected) {
		t.Fatalf("expected %d links, got %v", len(expected), links)
	}
	for _, link := range links {
		if got := MemberType(link); got != expected[link] {
			t.Errorf("MemberType(%q) = %q, expected %q", link, got, expected[link])
		}
	}
}

func TestMemberLinksNoWantedType(t *testing.T) {
	if got := MemberLinks(gjson.Parse(orgProfile), []string{"dermatologue"}); len(got) != 0 {
		t.Fatalf("expected no links, got %v", got)
	}
}
