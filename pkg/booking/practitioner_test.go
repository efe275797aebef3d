package booking

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

const sampleProfile = `{
  "data": {
    "profile": {"name_with_title": "Dr Jane Doe"},
    "specialities": [
      {"id": 11, "slug": "orl-oto-rhino-laryngologie", "name": "ORL"},
      {"id": 22, "slug": "allergologue", "name": "Allergologue"}
    ],
    "places": [
      {"address": "12 rue des Fleurs", "zipcode": "31000", "city": "Toulouse", "practice_ids": [100]}
    ],
    "visit_motives": [
      {"id": 1, "name": "Première consultation ORL", "speciality_id": 11},
      {"id": 2, "name": "Consultation de suivi", "speciality_id": 11},
      {"id": 3, "name": "Bilan allergologique", "speciality_id": 22}
    ],
    "agendas": [
      {"id": 500, "speciality_id": 11, "booking_disabled": false, "booking_temporary_disabled": false, "practice_id": 100, "visit_motive_ids": [1, 2]},
      {"id": 501, "speciality_id": 11, "booking_disabled": true, "booking_temporary_disabled": false, "practice_id": 100, "visit_motive_ids": [1]},
      {"id": 502, "speciality_id": 11, "booking_disabled": false, "booking_temporary_disabled": true, "practice_id": 100, "visit_motive_ids": [2]},
      {"id": 503, "speciality_id": 22, "booking_disabled": false, "booking_temporary_disabled": false, "practice_id": 100, "visit_motive_ids": [3]}
    ]
  }
}`

func buildSample(t *testing.T) *Practitioner {
	t.Helper()
	p, err := NewPractitioner("jane-doe", gjson.Parse(sampleProfile), "ORL")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewPractitionerResolvesSpecialityAndFilters(t *testing.T) {
	p := buildSample(t)

	if p.SpecialityID != 11 || p.Speciality != "ORL" {
		t.Fatalf("speciality: got (%d, %q)", p.SpecialityID, p.Speciality)
	}
	if p.Name != "Dr Jane Doe" {
		t.Fatalf("name: got %q", p.Name)
	}

	// Motive 3 belongs to the allergology speciality of the same account.
	expectedMotives := map[int64]string{1: "Première consultation ORL", 2: "Consultation de suivi"}
	if !reflect.DeepEqual(p.Motives, expectedMotives) {
		t.Fatalf("motives: got %v", p.Motives)
	}

	// 501/502 are booking-disabled, 503 is the other speciality.
	expectedAgendas := map[int64]map[int64][]int64{500: {100: {1, 2}}}
	if !reflect.DeepEqual(p.Agendas, expectedAgendas) {
		t.Fatalf("agendas: got %v", p.Agendas)
	}

	if p.Practices[100] != "12 rue des Fleurs, 31000, Toulouse" {
		t.Fatalf("practice address: got %q", p.Practices[100])
	}
}

func TestNewPractitionerSpecialityMatchIsFoldInsensitive(t *testing.T) {
	p, err := NewPractitioner("jane-doe", gjson.Parse(sampleProfile), "orl-OTO-rhino-laryngologie")
	if err != nil {
		t.Fatal(err)
	}
	if p.SpecialityID != 11 {
		t.Fatalf("expected speciality 11, got %d", p.SpecialityID)
	}
}

func TestNewPractitionerUnknownSpeciality(t *testing.T) {
	_, err := NewPractitioner("jane-doe", gjson.Parse(sampleProfile), "dermatologue")
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestNarrowKeepsBestKeywordMatch(t *testing.T) {
	p := buildSample(t)

	// "premiere" matches "Première consultation ORL" once, diacritic-insensitively,
	// and "Consultation de suivi" zero times: 1 > 0, only the first survives.
	if err := p.Narrow([]string{"premiere"}, nil); err != nil {
		t.Fatal(err)
	}

	expectedMotives := map[int64]string{1: "Première consultation ORL"}
	if !reflect.DeepEqual(p.Motives, expectedMotives) {
		t.Fatalf("motives: got %v", p.Motives)
	}
	expectedAgendas := map[int64]map[int64][]int64{500: {100: {1}}}
	if !reflect.DeepEqual(p.Agendas, expectedAgendas) {
		t.Fatalf("agendas: got %v", p.Agendas)
	}
}

func TestNarrowForbiddenKeywordWinsOverMatchCount(t *testing.T) {
	motives := map[int64]string{
		1: "Consultation ORL",
		2: "Consultation ORL urgence",
	}
	got := narrowMotives(motives, nil, []string{"urgence"})
	expected := map[int64]string{1: "Consultation ORL"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v", got)
	}
}

func TestNarrowEmptyKeywordsKeepAllNonForbidden(t *testing.T) {
	p := buildSample(t)
	if err := p.Narrow(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(p.Motives) != 2 {
		t.Fatalf("expected both motives kept, got %v", p.Motives)
	}
}

func TestNarrowTiesAreAllRetained(t *testing.T) {
	motives := map[int64]string{
		1: "Première consultation ORL",
		2: "Consultation première fois",
		3: "Suivi",
	}
	got := narrowMotives(motives, []string{"premiere"}, nil)
	if len(got) != 2 {
		t.Fatalf("expected both tied motives kept, got %v", got)
	}
	if _, ok := got[3]; ok {
		t.Fatal("motive below the maximum must be removed")
	}
}

func TestNarrowIsIdempotent(t *testing.T) {
	p := buildSample(t)
	if err := p.Narrow([]string{"premiere"}, []string{"urgence"}); err != nil {
		t.Fatal(err)
	}
	motives := p.Motives
	agendas := p.Agendas

	if err := p.Narrow([]string{"premiere"}, []string{"urgence"}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.Motives, motives) || !reflect.DeepEqual(p.Agendas, agendas) {
		t.Fatalf("narrowing twice changed the result: %v / %v", p.Motives, p.Agendas)
	}
}

func TestNarrowNoMatchIsDistinctFromHardError(t *testing.T) {
	p := buildSample(t)
	err := p.Narrow(nil, []string{"consultation"})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestNarrowAgendasDropsEmptiedEntries(t *testing.T) {
	agendas := map[int64]map[int64][]int64{
		1: {10: {100}},       // survives: motive 100 kept
		2: {20: {200}},       // dropped: only motive outside the narrowed set
		3: {30: {100, 200}},  // practice list shrinks to the intersection
		4: {40: {200}, 41: {100}}, // practice 40 dropped, 41 kept
	}
	motives := map[int64]string{100: "kept"}

	got := narrowAgendas(agendas, motives)
	expected := map[int64]map[int64][]int64{
		1: {10: {100}},
		3: {30: {100}},
		4: {41: {100}},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
}
