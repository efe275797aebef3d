// Package reminder drives a full availability run: discovery, matching,
// slot polling and digest building.
package reminder

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/lmarchal/doctoveille/internal/utils"
	"github.com/lmarchal/doctoveille/pkg/booking"
	"github.com/lmarchal/doctoveille/pkg/doctolib"
)

// Config carries one run's search parameters. Address search runs when city
// and street are set; explicitly configured profile URLs are always checked.
type Config struct {
	PractitionerTypes []string
	City              string
	Street            string
	MaxDistanceKm     float64

	Keywords          []string
	ForbiddenKeywords []string

	MaxDaysFromToday int
	MaxDate          time.Time

	ProfileURLs []string

	Concurrency int
	CacheMaxAge time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Digest        string
	Found         bool
	Practitioners []*booking.Practitioner
}

type Reminder struct {
	cfg    Config
	client *doctolib.Client
	log    *logrus.Entry
}

func New(cfg Config, client *doctolib.Client) *Reminder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = 10000
	}
	return &Reminder{
		cfg:    cfg,
		client: client,
		log:    utils.Log.WithField("run", uuid.NewString()[:8]),
	}
}

// candidate is one profile to resolve, with the distance reported by the
// search listing when it came from address discovery.
type candidate struct {
	url        string
	wantedType string
	distanceKm float64
}

// Run executes the discovery, matching and polling phases and builds the
// digest. No failure inside a run is fatal; the worst outcome is an empty
// digest.
func (r *Reminder) Run(now time.Time) (Report, error) {
	candidates := r.discoverAround()
	for _, u := range r.cfg.ProfileURLs {
		wanted := ""
		if len(r.cfg.PractitionerTypes) == 1 {
			wanted = r.cfg.PractitionerTypes[0]
		}
		candidates = append(candidates, candidate{url: u, wantedType: wanted, distanceKm: -1})
	}
	if len(candidates) == 0 {
		r.log.Warn("Nothing to check: no address search configured and no profile URLs listed")
		return Report{}, nil
	}

	practitioners := r.resolveAll(candidates)

	cutoff := Cutoff(now, r.cfg.MaxDaysFromToday, r.cfg.MaxDate)
	r.log.Infof("Reminder cutoff date is %s", cutoff.Format("2006-01-02"))

	var matched []*booking.Practitioner
	for _, p := range practitioners {
		if p.PollNextSlots(r.client) && MarkSlots(p, cutoff) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Slug < matched[j].Slug })

	report := Report{
		Digest:        BuildDigest(matched),
		Found:         len(matched) > 0,
		Practitioners: matched,
	}
	r.log.Infof("Run finished: %d practitioner(s) with slots before the cutoff", len(matched))
	return report, nil
}

// discoverAround queries the search listing for every configured type around
// the configured address. Results arrive pre-sorted by ascending distance, so
// scanning stops at the first entry beyond the maximum.
func (r *Reminder) discoverAround() []candidate {
	if r.cfg.City == "" || r.cfg.Street == "" {
		return nil
	}
	if len(r.cfg.PractitionerTypes) == 0 {
		r.log.Error("Address search requested but no practitioner types configured, skipping this phase")
		return nil
	}

	var out []candidate
	for _, ptype := range r.cfg.PractitionerTypes {
		url := r.searchURL(ptype)
		res, err := r.client.FetchJSONCached(url, r.cfg.CacheMaxAge)
		if err != nil {
			r.log.Errorf("Search listing %s failed: %v", url, err)
			continue
		}
		for _, doctor := range res.Get("data.doctors").Array() {
			distance := doctor.Get("distance").Float()
			if distance >= r.cfg.MaxDistanceKm {
				// Max distance reached, the rest is even further away.
				break
			}
			link := doctor.Get("link").String()
			if link == "" {
				continue
			}
			out = append(out, candidate{
				url:        doctolib.BaseURL + link,
				wantedType: ptype,
				distanceKm: distance,
			})
		}
	}
	r.log.Infof("Address search found %d candidate(s)", len(out))
	return out
}

func (r *Reminder) searchURL(ptype string) string {
	location := booking.Slugify(r.cfg.City) + "-" + booking.Slugify(r.cfg.Street)
	return fmt.Sprintf("%s/%s/%s.json", doctolib.BaseURL, booking.Slugify(ptype), location)
}

// resolveAll fans the candidates out over a small worker pool. All workers
// share the one client, whose ledger serializes the budget accounting.
func (r *Reminder) resolveAll(candidates []candidate) []*booking.Practitioner {
	queue := make(chan candidate, r.cfg.Concurrency)

	var mu sync.Mutex
	var out []*booking.Practitioner

	var wg sync.WaitGroup
	wg.Add(r.cfg.Concurrency)
	for i := 0; i < r.cfg.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for c := range queue {
				for _, p := range r.resolveCandidate(c) {
					mu.Lock()
					out = append(out, p)
					mu.Unlock()
				}
			}
		}()
	}
	for _, c := range candidates {
		queue <- c
	}
	close(queue)
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// resolveCandidate turns one candidate URL into zero or more matched,
// narrowed practitioners. Organizations expand into their member profiles,
// filtered by the configured types.
func (r *Reminder) resolveCandidate(c candidate) []*booking.Practitioner {
	slug, profile, err := booking.ResolveProfile(r.client, c.url, r.cfg.CacheMaxAge)
	if err != nil {
		r.logSkip(c.url, err)
		return nil
	}

	if booking.IsOrganization(profile) {
		members := booking.MemberLinks(profile, r.cfg.PractitionerTypes)
		r.log.Infof("%s is a group practice with %d matching member(s)", slug, len(members))
		var out []*booking.Practitioner
		for _, memberURL := range members {
			// Each member carries its own type in the link; an org found via
			// one type's search can still list members of another wanted type.
			if p := r.buildOne(memberURL, booking.MemberType(memberURL), -1); p != nil {
				out = append(out, p)
			}
		}
		return out
	}

	if p := r.buildPractitioner(slug, profile, c.wantedType, c.distanceKm); p != nil {
		return []*booking.Practitioner{p}
	}
	return nil
}

func (r *Reminder) buildOne(url, wantedType string, distanceKm float64) *booking.Practitioner {
	slug, profile, err := booking.ResolveProfile(r.client, url, r.cfg.CacheMaxAge)
	if err != nil {
		r.logSkip(url, err)
		return nil
	}
	return r.buildPractitioner(slug, profile, wantedType, distanceKm)
}

func (r *Reminder) buildPractitioner(slug string, profile gjson.Result, wantedType string, distanceKm float64) *booking.Practitioner {
	p, err := booking.NewPractitioner(slug, profile, wantedType)
	if err != nil {
		r.logSkip(slug, err)
		return nil
	}
	p.DistanceKm = distanceKm
	if err := p.Narrow(r.cfg.Keywords, r.cfg.ForbiddenKeywords); err != nil {
		if errors.Is(err, booking.ErrNoMatch) {
			r.log.Infof("Skipping %s: %v", slug, err)
		} else {
			r.log.Errorf("Narrowing %s failed: %v", slug, err)
		}
		return nil
	}
	r.log.Infof("Checking %s (%s)", p.Name, p.Speciality)
	return p
}

func (r *Reminder) logSkip(entity string, err error) {
	switch {
	case errors.Is(err, booking.ErrUnresolved), errors.Is(err, booking.ErrBadProfileURL):
		r.log.Infof("Skipping %s: %v", entity, err)
	case errors.Is(err, doctolib.ErrBudgetExhausted):
		r.log.Warnf("Skipping %s: %v", entity, err)
	default:
		r.log.Errorf("Skipping %s: %v", entity, err)
	}
}
