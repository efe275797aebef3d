package booking

import (
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestAvailabilityURL(t *testing.T) {
	expected := "https://www.doctolib.fr/availabilities.json?start_date=2000-01-01&visit_motive_ids=1&agenda_ids=500&practice_ids=100&limit=2"
	if got := availabilityURL(1, 500, 100); got != expected {
		t.Fatalf("got %q", got)
	}
}

func TestParseNextSlot(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected time.Time
		found    bool
	}{
		{
			name:     "timestamp with offset",
			payload:  `{"next_slot": "2024-03-12T10:00:00.000+01:00"}`,
			expected: time.Date(2024, 3, 12, 10, 0, 0, 0, time.FixedZone("", 3600)),
			found:    true,
		},
		{
			name:     "date only",
			payload:  `{"next_slot": "2024-03-12"}`,
			expected: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{name: "missing field", payload: `{"total": 0}`},
		{name: "null value", payload: `{"next_slot": null}`},
		{name: "no availability sentinel", payload: `{"next_slot": "No availability"}`},
		{name: "empty string", payload: `{"next_slot": ""}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := parseNextSlot(gjson.Parse(tc.payload))
			if found != tc.found {
				t.Fatalf("found = %v, expected %v", found, tc.found)
			}
			if found && !got.Equal(tc.expected) {
				t.Fatalf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}
