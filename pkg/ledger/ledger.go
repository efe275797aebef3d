// Package ledger tracks request timestamps per traffic category so that the
// sliding-window budget survives process restarts.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/lmarchal/doctoveille/internal/utils"
)

// TimeLayout is the on-disk timestamp format: ISO-8601 with microseconds.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Ledger holds, per traffic category, the ordered timestamps of the requests
// already sent. Entries older than a category's window are only dropped when
// Prune is called, never eagerly.
type Ledger struct {
	entries map[string][]time.Time
}

func New() *Ledger {
	return &Ledger{entries: make(map[string][]time.Time)}
}

// Prune drops every timestamp of the category older than the window.
func (l *Ledger) Prune(category string, now time.Time, window time.Duration) {
	kept := l.entries[category][:0]
	for _, t := range l.entries[category] {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.entries, category)
		return
	}
	l.entries[category] = kept
}

// Count returns the number of tracked timestamps for the category.
func (l *Ledger) Count(category string) int {
	return len(l.entries[category])
}

// Append records a request timestamp for the category.
func (l *Ledger) Append(category string, t time.Time) {
	l.entries[category] = append(l.entries[category], t)
}

// Categories returns the tracked category names, sorted.
func (l *Ledger) Categories() []string {
	out := make([]string, 0, len(l.entries))
	for c := range l.entries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Entries returns a copy of the category's timestamps.
func (l *Ledger) Entries(category string) []time.Time {
	return append([]time.Time(nil), l.entries[category]...)
}

// FileStore persists a Ledger as a JSON document mapping category name to a
// list of timestamp strings. A flock guards against concurrent processes.
type FileStore struct {
	path string
	lock *utils.FileLock
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create ledger directory: %w", err)
	}
	lock, err := utils.NewFileLock(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, lock: lock}, nil
}

// Load reads the ledger file. A missing file yields an empty ledger; entries
// that don't parse are skipped rather than failing the whole load.
func (s *FileStore) Load() (*Ledger, error) {
	l := New()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("could not read ledger file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		utils.Log.Warnf("Ledger file %s is not valid JSON, starting with an empty ledger", s.path)
		return l, nil
	}
	gjson.ParseBytes(data).ForEach(func(category, stamps gjson.Result) bool {
		for _, stamp := range stamps.Array() {
			t, err := time.Parse(TimeLayout, stamp.String())
			if err != nil {
				utils.Log.Debugf("Skipping unparsable ledger entry %q: %v", stamp.String(), err)
				continue
			}
			l.Append(category.String(), t)
		}
		return true
	})
	return l, nil
}

// Save writes the full ledger to disk, synchronously.
func (s *FileStore) Save(l *Ledger) error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	doc := []byte(`{}`)
	var err error
	for _, category := range l.Categories() {
		stamps := make([]string, 0, l.Count(category))
		for _, t := range l.Entries(category) {
			stamps = append(stamps, t.Format(TimeLayout))
		}
		doc, err = sjson.SetBytes(doc, category, stamps)
		if err != nil {
			return fmt.Errorf("could not serialize ledger: %w", err)
		}
	}
	if err := os.WriteFile(s.path, doc, 0o644); err != nil {
		return fmt.Errorf("could not write ledger file: %w", err)
	}
	return nil
}
