package reminder

import (
	"time"

	"github.com/lmarchal/doctoveille/pkg/booking"
)

// Cutoff resolves the reminder date: the earlier of today+maxDays and the
// explicit maxDate. A maxDate already in the past is ignored entirely rather
// than collapsing the window to zero. maxDate may be zero (unset).
func Cutoff(now time.Time, maxDays int, maxDate time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, maxDays)
	if !maxDate.IsZero() && !maxDate.Before(today) && maxDate.Before(cutoff) {
		cutoff = maxDate
	}
	return cutoff
}

// MarkSlots flags every slot strictly before the cutoff for the reminder and
// reports whether the practitioner contributes to the digest.
func MarkSlots(p *booking.Practitioner, cutoff time.Time) bool {
	marked := false
	for i := range p.NextSlots {
		if p.NextSlots[i].Start.Before(cutoff) {
			p.NextSlots[i].SendReminder = true
			marked = true
		}
	}
	return marked
}
