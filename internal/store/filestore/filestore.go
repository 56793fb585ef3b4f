// Package filestore persists MarketSnapshot documents as one JSON file per
// scan under <base>/<trade_date>/. Writes are atomic (temp file + rename)
// and keys are write-once; rebuild writes add a generation suffix so prior
// records stay readable while reads resolve to the newest generation.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Stuuu223/myquanttool/internal/domain/snapshot"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// Store is a file-backed SnapshotStore.
type Store struct {
	base string
}

// New creates a file store rooted at base, creating it if needed.
func New(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", base, err)
	}
	return &Store{base: base}, nil
}

// WriteSnapshot implements store.SnapshotStore.
func (s *Store) WriteSnapshot(ctx context.Context, snap *snapshot.MarketSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.SchemaVersion == 0 {
		snap.SchemaVersion = snapshot.SchemaVersion
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	key := snap.Key()
	gen, err := s.latestGeneration(key)
	if err != nil {
		return err
	}
	if gen > 0 && snap.Mode != snapshot.ModeRebuild {
		return &store.ConflictError{Key: key.String()}
	}

	dir := filepath.Join(s.base, key.TradeDate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create date dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}

	// All-or-nothing: marshal and write to a temp file, then rename.
	path := filepath.Join(dir, fileName(key, gen+1))
	tmp, err := os.CreateTemp(dir, ".snap-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", key, err)
	}

	log.Debug().
		Str("key", key.String()).
		Int("generation", gen+1).
		Int("instruments", snap.Summary.Opportunities+snap.Summary.Watchlist+snap.Summary.Blacklist).
		Msg("snapshot written")
	return nil
}

// ReadSnapshot implements store.SnapshotStore.
func (s *Store) ReadSnapshot(ctx context.Context, tradeDate, scanTime string, mode snapshot.Mode) (*snapshot.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.dateEntries(tradeDate)
	if err != nil {
		return nil, err
	}

	wantTime := compactTime(scanTime)
	var best *fileEntry
	for i := range entries {
		e := &entries[i]
		if mode != "" && e.key.Mode != mode {
			continue
		}
		if wantTime != "" && e.key.ScanTime != wantTime {
			continue
		}
		if best == nil || e.after(best) {
			best = e
		}
	}
	if best == nil {
		return nil, &store.NotFoundError{Key: readKey(tradeDate, scanTime, mode)}
	}

	data, err := os.ReadFile(best.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", best.key, err)
	}
	return snapshot.Decode(data)
}

// ListSnapshots implements store.SnapshotStore. Generations collapse to one
// key; the slice is freshly built per call and safe to re-iterate.
func (s *Store) ListSnapshots(ctx context.Context, dr store.DateRange) ([]snapshot.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dates: %w", err)
	}

	seen := make(map[snapshot.Key]bool)
	var keys []snapshot.Key
	for _, d := range dates {
		if !d.IsDir() {
			continue
		}
		date := d.Name()
		if (dr.From != "" && date < dr.From) || (dr.To != "" && date > dr.To) {
			continue
		}
		entries, err := s.dateEntries(date)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !seen[e.key] {
				seen[e.key] = true
				keys = append(keys, e.key)
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TradeDate != keys[j].TradeDate {
			return keys[i].TradeDate < keys[j].TradeDate
		}
		if keys[i].ScanTime != keys[j].ScanTime {
			return keys[i].ScanTime < keys[j].ScanTime
		}
		return keys[i].Mode < keys[j].Mode
	})
	return keys, nil
}

type fileEntry struct {
	key  snapshot.Key
	gen  int
	path string
}

// after orders candidates for "latest for date": later scan time wins, and
// within a key the highest rebuild generation wins.
func (e *fileEntry) after(o *fileEntry) bool {
	if e.key.ScanTime != o.key.ScanTime {
		return e.key.ScanTime > o.key.ScanTime
	}
	return e.gen > o.gen
}

func (s *Store) dateEntries(tradeDate string) ([]fileEntry, error) {
	dir := filepath.Join(s.base, tradeDate)
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", tradeDate, err)
	}

	var entries []fileEntry
	for _, f := range files {
		key, gen, ok := parseFileName(f.Name())
		if !ok {
			continue
		}
		entries = append(entries, fileEntry{key: key, gen: gen, path: filepath.Join(dir, f.Name())})
	}
	return entries, nil
}

// latestGeneration returns the highest generation present for key, 0 when
// the key has never been written.
func (s *Store) latestGeneration(key snapshot.Key) (int, error) {
	entries, err := s.dateEntries(key.TradeDate)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, e := range entries {
		if e.key == key && e.gen > max {
			max = e.gen
		}
	}
	return max, nil
}

// fileName renders "<key>.json" for generation 1 and "<key>.g<N>.json" for
// rebuild generations.
func fileName(key snapshot.Key, gen int) string {
	if gen <= 1 {
		return key.String() + ".json"
	}
	return fmt.Sprintf("%s.g%d.json", key, gen)
}

func parseFileName(name string) (snapshot.Key, int, bool) {
	if !strings.HasSuffix(name, ".json") {
		return snapshot.Key{}, 0, false
	}
	stem := strings.TrimSuffix(name, ".json")
	gen := 1
	if i := strings.LastIndex(stem, ".g"); i > 0 {
		if n, err := strconv.Atoi(stem[i+2:]); err == nil {
			gen = n
			stem = stem[:i]
		}
	}
	key, err := snapshot.ParseKey(stem)
	if err != nil {
		return snapshot.Key{}, 0, false
	}
	return key, gen, true
}

func compactTime(scanTime string) string {
	if scanTime == "" {
		return ""
	}
	if len(scanTime) == 6 {
		return scanTime
	}
	if len(scanTime) == 19 {
		return strings.ReplaceAll(scanTime[11:], ":", "")
	}
	if len(scanTime) == 8 { // HH:MM:SS
		return strings.ReplaceAll(scanTime, ":", "")
	}
	return scanTime
}

func readKey(tradeDate, scanTime string, mode snapshot.Mode) string {
	t := compactTime(scanTime)
	if t == "" {
		t = "latest"
	}
	m := string(mode)
	if m == "" {
		m = "any"
	}
	return fmt.Sprintf("%s_%s_%s", tradeDate, t, m)
}
