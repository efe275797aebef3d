package reminder

import (
	"fmt"
	"strings"

	"github.com/lmarchal/doctoveille/pkg/booking"
)

// Subject is the notification subject line for a non-empty digest.
const Subject = "Doctolib availability reminder: new slots available!"

// BuildDigest renders the pre-formatted digest body for the practitioners
// that have at least one marked slot. Dispatching is the caller's business.
func BuildDigest(practitioners []*booking.Practitioner) string {
	var b strings.Builder
	for _, p := range practitioners {
		if !hasMarkedSlot(p) {
			continue
		}
		fmt.Fprintf(&b, "Practitioner : %s\n", p.Name)
		fmt.Fprintf(&b, "Type : %s\n", p.Speciality)
		if p.DistanceKm >= 0 {
			fmt.Fprintf(&b, "Distance from address : %.2f km\n", p.DistanceKm)
		}
		b.WriteString("Next available slots :\n")
		for _, slot := range p.NextSlots {
			if !slot.SendReminder {
				continue
			}
			label := p.Motives[slot.MotiveID]
			fmt.Fprintf(&b, "%s : %s", label, slot.Start.Format("2006-01-02"))
			if address, ok := p.Practices[slot.PracticeID]; ok && address != "" {
				fmt.Fprintf(&b, " (%s)", address)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func hasMarkedSlot(p *booking.Practitioner) bool {
	for _, slot := range p.NextSlots {
		if slot.SendReminder {
			return true
		}
	}
	return false
}
