package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/internal/utils"
	"github.com/lmarchal/doctoveille/pkg/doctolib"
)

const (
	// sentinelStartDate sits far in the past so the endpoint never has a slot
	// to list and answers with its next_slot field instead of a calendar page.
	sentinelStartDate = "2000-01-01"
	availabilityLimit = 2
)

// noAvailabilitySentinel is the endpoint's "nothing bookable" marker, matched
// after folding.
const noAvailabilitySentinel = "no availability"

// NextSlot is the earliest open appointment the site reports for one
// (motive, agenda, practice) triple. SendReminder is decided later by the
// orchestrator against the cutoff date.
type NextSlot struct {
	Start        time.Time
	MotiveID     int64
	AgendaID     int64
	PracticeID   int64
	SendReminder bool
}

func availabilityURL(motiveID, agendaID, practiceID int64) string {
	return fmt.Sprintf("%s/availabilities.json?start_date=%s&visit_motive_ids=%d&agenda_ids=%d&practice_ids=%d&limit=%d",
		doctolib.BaseURL, sentinelStartDate, motiveID, agendaID, practiceID, availabilityLimit)
}

// PollNextSlots queries every triple implied by the narrowed agenda map and
// appends the discovered slots. All triples are always queried so the digest
// gets complete results; it reports whether at least one slot was found.
func (p *Practitioner) PollNextSlots(client *doctolib.Client) bool {
	found := false
	for _, agendaID := range sortedKeys(p.Agendas) {
		practices := p.Agendas[agendaID]
		for _, practiceID := range sortedKeys(practices) {
			for _, motiveID := range practices[practiceID] {
				res, err := client.FetchJSON(availabilityURL(motiveID, agendaID, practiceID))
				if err != nil {
					utils.Log.Debugf("Availability check failed for %s (motive %d, agenda %d, practice %d): %v",
						p.Slug, motiveID, agendaID, practiceID, err)
					continue
				}
				start, ok := parseNextSlot(res)
				if !ok {
					continue
				}
				p.NextSlots = append(p.NextSlots, NextSlot{
					Start:      start,
					MotiveID:   motiveID,
					AgendaID:   agendaID,
					PracticeID: practiceID,
				})
				found = true
			}
		}
	}
	return found
}

// parseNextSlot extracts the next_slot field. A missing field, a null value
// and the no-availability sentinel all mean "nothing found", not an error.
func parseNextSlot(res gjson.Result) (time.Time, bool) {
	field := res.Get("next_slot")
	if !field.Exists() || field.Type == gjson.Null {
		return time.Time{}, false
	}
	value := field.String()
	if value == "" || strings.Contains(Fold(value), noAvailabilitySentinel) {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	utils.Log.Debugf("Unparsable next_slot value %q", value)
	return time.Time{}, false
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
