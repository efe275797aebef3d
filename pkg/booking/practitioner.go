// Package booking models practitioners and resolves a keyword search into the
// minimal set of (practice, visit motive, agenda) triples worth polling.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/internal/utils"
)

var (
	// ErrInvalidProfile marks profiles missing the mandatory booking data
	// (speciality, motives, agendas). Common for deactivated or mistyped
	// profiles; callers skip the entity and keep going.
	ErrInvalidProfile = errors.New("profile is missing mandatory booking data")
	// ErrNoMatch means narrowing left no motive or agenda. The practitioner
	// is irrelevant for this search, which is not a failure of the run.
	ErrNoMatch = errors.New("no visit motive matches the requested keywords")
)

// Practitioner is a bookable provider. Built once per raw profile payload,
// read-only afterwards except for Narrow (which only removes entries) and
// PollNextSlots (which only appends slots).
type Practitioner struct {
	Slug         string
	Name         string
	SpecialityID int64
	Speciality   string

	// DistanceKm is negative when the profile wasn't found via address search.
	DistanceKm float64

	Practices map[int64]string            // practice id -> postal address
	Motives   map[int64]string            // visit motive id -> label
	Agendas   map[int64]map[int64][]int64 // agenda id -> practice id -> bookable motive ids

	NextSlots []NextSlot
}

// NewPractitioner builds a Practitioner from a raw profile payload. Motives
// and agendas belonging to another speciality of a multi-speciality account
// are excluded here. wantedSpeciality may be empty, in which case the first
// listed speciality is taken.
func NewPractitioner(slug string, profile gjson.Result, wantedSpeciality string) (*Practitioner, error) {
	data := profile.Get("data")

	specID, specName := resolveSpeciality(data, wantedSpeciality)
	if specID == 0 {
		return nil, fmt.Errorf("%w: no speciality %q on profile %s", ErrInvalidProfile, wantedSpeciality, slug)
	}

	p := &Practitioner{
		Slug:         slug,
		Name:         displayName(data, slug),
		SpecialityID: specID,
		Speciality:   specName,
		DistanceKm:   -1,
		Practices:    make(map[int64]string),
		Motives:      make(map[int64]string),
		Agendas:      make(map[int64]map[int64][]int64),
	}

	for _, place := range data.Get("places").Array() {
		address := formatAddress(place)
		for _, id := range place.Get("practice_ids").Array() {
			p.Practices[id.Int()] = address
		}
	}

	for _, motive := range data.Get("visit_motives").Array() {
		if motive.Get("speciality_id").Int() != specID {
			continue
		}
		if id := motive.Get("id"); id.Exists() {
			p.Motives[id.Int()] = motive.Get("name").String()
		}
	}

	for _, agenda := range data.Get("agendas").Array() {
		if agenda.Get("booking_disabled").Bool() || agenda.Get("booking_temporary_disabled").Bool() {
			continue
		}
		if agenda.Get("speciality_id").Int() != specID {
			continue
		}
		practices := agendaPractices(agenda, p.Motives)
		if len(practices) > 0 {
			p.Agendas[agenda.Get("id").Int()] = practices
		}
	}

	if len(p.Motives) == 0 || len(p.Agendas) == 0 {
		return nil, fmt.Errorf("%w: profile %s has no bookable motive or agenda for %s", ErrInvalidProfile, slug, specName)
	}
	return p, nil
}

// resolveSpeciality matches the wanted speciality against the profile's
// speciality slugs and names, fold-insensitively.
func resolveSpeciality(data gjson.Result, wanted string) (int64, string) {
	foldedWanted := Fold(wanted)
	for _, speciality := range data.Get("specialities").Array() {
		if wanted == "" ||
			foldedWanted == Fold(speciality.Get("slug").String()) ||
			foldedWanted == Fold(speciality.Get("name").String()) {
			return speciality.Get("id").Int(), speciality.Get("name").String()
		}
	}
	return 0, ""
}

func displayName(data gjson.Result, slug string) string {
	if name := data.Get("profile.name_with_title"); name.Exists() {
		return name.String()
	}
	return slug
}

func formatAddress(place gjson.Result) string {
	parts := []string{}
	for _, key := range []string{"address", "zipcode", "city"} {
		if v := place.Get(key).String(); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// agendaPractices builds the practice -> motive-ids mapping of one agenda,
// restricted to the practitioner's resolved motives. Payloads carry either a
// per-practice map or a flat motive list plus a single practice id.
func agendaPractices(agenda gjson.Result, motives map[int64]string) map[int64][]int64 {
	out := make(map[int64][]int64)

	if byPractice := agenda.Get("visit_motive_ids_by_practice_id"); byPractice.IsObject() {
		byPractice.ForEach(func(practiceID, motiveIDs gjson.Result) bool {
			ids := keepKnownMotives(motiveIDs.Array(), motives)
			if len(ids) > 0 {
				out[practiceID.Int()] = ids
			}
			return true
		})
		return out
	}

	if practiceID := agenda.Get("practice_id"); practiceID.Exists() {
		ids := keepKnownMotives(agenda.Get("visit_motive_ids").Array(), motives)
		if len(ids) > 0 {
			out[practiceID.Int()] = ids
		}
	}
	return out
}

func keepKnownMotives(raw []gjson.Result, motives map[int64]string) []int64 {
	var ids []int64
	for _, r := range raw {
		if _, ok := motives[r.Int()]; ok {
			ids = append(ids, r.Int())
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Narrow keeps only the motives best matching the keywords and rebuilds the
// agenda map around them. With no keywords every non-forbidden motive passes.
// Ambiguous equally-good motives are all retained and will all be polled.
// Narrowing is idempotent and never adds entries.
func (p *Practitioner) Narrow(keywords, forbiddenKeywords []string) error {
	motives := narrowMotives(p.Motives, keywords, forbiddenKeywords)
	if len(motives) == 0 {
		utils.Log.Infof("No visit motive of %s survives keywords %v (forbidden %v)", p.Slug, keywords, forbiddenKeywords)
		return ErrNoMatch
	}
	agendas := narrowAgendas(p.Agendas, motives)
	if len(agendas) == 0 {
		utils.Log.Infof("No agenda of %s can book the surviving motives", p.Slug)
		return ErrNoMatch
	}
	p.Motives = motives
	p.Agendas = agendas
	return nil
}

func narrowMotives(motives map[int64]string, keywords, forbidden []string) map[int64]string {
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		folded = append(folded, Fold(k))
	}
	foldedForbidden := make([]string, 0, len(forbidden))
	for _, k := range forbidden {
		foldedForbidden = append(foldedForbidden, Fold(k))
	}

	counts := make(map[int64]int)
	maxCount := 0
	for id, label := range motives {
		foldedLabel := Fold(label)
		if containsAny(foldedLabel, foldedForbidden) {
			continue
		}
		n := 0
		for _, k := range folded {
			if strings.Contains(foldedLabel, k) {
				n++
			}
		}
		counts[id] = n
		if n > maxCount {
			maxCount = n
		}
	}

	out := make(map[int64]string)
	for id, n := range counts {
		if n == maxCount {
			out[id] = motives[id]
		}
	}
	return out
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// narrowAgendas rebuilds the agenda map keeping only practice entries that
// still intersect the surviving motive set, dropping emptied agendas.
func narrowAgendas(agendas map[int64]map[int64][]int64, motives map[int64]string) map[int64]map[int64][]int64 {
	out := make(map[int64]map[int64][]int64)
	for agendaID, practices := range agendas {
		kept := make(map[int64][]int64)
		for practiceID, motiveIDs := range practices {
			var ids []int64
			for _, id := range motiveIDs {
				if _, ok := motives[id]; ok {
					ids = append(ids, id)
				}
			}
			if len(ids) > 0 {
				kept[practiceID] = ids
			}
		}
		if len(kept) > 0 {
			out[agendaID] = kept
		}
	}
	return out
}
