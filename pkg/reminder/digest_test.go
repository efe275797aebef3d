package reminder

import (
	"strings"
	"testing"
	"time"

	"github.com/lmarchal/doctoveille/pkg/booking"
)

func TestBuildDigest(t *testing.T) {
	p := &booking.Practitioner{
		Slug:       "jane-doe",
		Name:       "Dr Jane Doe",
		Speciality: "ORL",
		DistanceKm: 2.5,
		Motives:    map[int64]string{1: "Première consultation ORL"},
		Practices:  map[int64]string{100: "12 rue des Fleurs, 31000, Toulouse"},
		NextSlots: []booking.NextSlot{
			{Start: time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC), MotiveID: 1, PracticeID: 100, SendReminder: true},
			{Start: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), MotiveID: 1, PracticeID: 100, SendReminder: false},
		},
	}

	digest := BuildDigest([]*booking.Practitioner{p})

	for _, want := range []string{
		"Practitioner : Dr Jane Doe",
		"Type : ORL",
		"Distance from address : 2.50 km",
		"Première consultation ORL : 2024-01-10",
		"12 rue des Fleurs",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q:\n%s", want, digest)
		}
	}
	if strings.Contains(digest, "2024-03-01") {
		t.Errorf("unmarked slot must not appear in the digest:\n%s", digest)
	}
}

func TestBuildDigestSkipsUnmarkedPractitioners(t *testing.T) {
	p := &booking.Practitioner{
		Name:      "Dr John Roe",
		NextSlots: []booking.NextSlot{{SendReminder: false}},
	}
	if got := BuildDigest([]*booking.Practitioner{p}); got != "" {
		t.Fatalf("expected empty digest, got %q", got)
	}
}

func TestBuildDigestOmitsUnknownDistance(t *testing.T) {
	p := &booking.Practitioner{
		Name:       "Dr Jane Doe",
		DistanceKm: -1,
		Motives:    map[int64]string{1: "Consultation"},
		NextSlots:  []booking.NextSlot{{MotiveID: 1, SendReminder: true}},
	}
	if strings.Contains(BuildDigest([]*booking.Practitioner{p}), "Distance") {
		t.Fatal("distance line must be omitted for direct-URL practitioners")
	}
}
