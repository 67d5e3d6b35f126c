package stats

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/bsw/internal/failure"
	"github.com/raphi011/bsw/internal/flock"
	"github.com/raphi011/bsw/internal/log"
)

const (
	DefaultMaxRetries = 10
	DefaultBaseDelay  = 50 * time.Millisecond
	DefaultCacheTTL   = 30 * time.Second

	// maxBackoffShift bounds the exponent so the delay cannot overflow.
	maxBackoffShift = 20
)

// Config configures a Store. Zero values select the defaults.
type Config struct {
	Path       string        // shared JSON file; empty disables the store
	MaxRetries int           // lock attempts per update
	BaseDelay  time.Duration // first backoff window is [BaseDelay, 3*BaseDelay)
	MaxDelay   time.Duration // caps a single backoff sleep; 0 means no cap
	CacheTTL   time.Duration // how long ReadAll results are reused

	// Now and Jitter are overridable for tests.
	Now    func() time.Time
	Jitter func(lo, hi time.Duration) time.Duration
}

// Store reads and updates the shared stats file.
type Store struct {
	cfg Config

	mu        sync.Mutex
	cached    []UserStat
	fetchedAt time.Time
}

// New creates a Store.
func New(cfg Config) *Store {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Jitter == nil {
		cfg.Jitter = uniform
	}
	return &Store{cfg: cfg}
}

// Enabled reports whether a stats file is configured.
func (s *Store) Enabled() bool {
	return s.cfg.Path != ""
}

// Path returns the stats file path.
func (s *Store) Path() string {
	return s.cfg.Path
}

// Update adds one usage sample to identity's record and returns the new
// totals. A positive elapsedSeconds counts as one switch taking that long;
// a positive bytesFreed is added to the space cleaned. The record's last
// activity is stamped either way.
//
// Lock conflicts are retried with backoff; after MaxRetries the error has
// kind failure.LockConflict. A corrupt document aborts without writing so
// other users' records are never overwritten.
func (s *Store) Update(ctx context.Context, identity string, elapsedSeconds float64, bytesFreed int64) (Totals, error) {
	if !s.Enabled() {
		return Totals{}, nil
	}

	var lastErr error
	for attempt := range s.cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return Totals{}, failure.New(failure.Cancelled, "update stats", err)
		}

		totals, err := s.updateOnce(identity, elapsedSeconds, bytesFreed)
		if err == nil {
			s.invalidate()
			return totals, nil
		}
		if failure.KindOf(err) != failure.LockConflict {
			return Totals{}, err
		}
		lastErr = err

		if attempt == s.cfg.MaxRetries-1 {
			break
		}
		delay := s.backoff(attempt)
		log.FromContext(ctx).Debug("stats file busy, retrying", "attempt", attempt+1, "delay", delay)
		if err := sleep(ctx, delay); err != nil {
			return Totals{}, failure.New(failure.Cancelled, "update stats", err)
		}
	}

	return Totals{}, fmt.Errorf("update stats after %d attempts: %w", s.cfg.MaxRetries, lastErr)
}

// UpdateMyStats is Update for callers that must never fail: errors are
// logged and zero totals returned.
func (s *Store) UpdateMyStats(ctx context.Context, identity string, elapsedSeconds float64, bytesFreed int64) Totals {
	totals, err := s.Update(ctx, identity, elapsedSeconds, bytesFreed)
	if err != nil {
		log.FromContext(ctx).Debug("stats not recorded", "path", s.cfg.Path, "err", err)
		return Totals{}
	}
	return totals
}

func (s *Store) updateOnce(identity string, elapsedSeconds float64, bytesFreed int64) (Totals, error) {
	var totals Totals

	err := flock.WithExclusive(s.cfg.Path, func(f *os.File) error {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		list, err := decode(data)
		if err != nil {
			return failure.New(failure.SerializationFailure, "read "+s.cfg.Path, err)
		}

		i := slices.IndexFunc(list, func(u UserStat) bool { return u.Name == identity })
		if i < 0 {
			list = append(list, UserStat{Name: identity})
			i = len(list) - 1
		}
		me := &list[i]
		if elapsedSeconds > 0 {
			me.TotalSwitches++
			me.TotalDuration += elapsedSeconds
		}
		if bytesFreed > 0 {
			me.TotalSpaceCleaned += bytesFreed
		}
		me.LastActive = Timestamp{s.cfg.Now()}
		totals = me.Totals()

		out, err := encode(list)
		if err != nil {
			return failure.New(failure.SerializationFailure, "encode stats", err)
		}
		if err := rewrite(f, out); err != nil {
			return failure.New(failure.SerializationFailure, "write "+s.cfg.Path, err)
		}
		return nil
	})
	return totals, err
}

// rewrite replaces the file's content in place. The lock lives on this
// inode, so the usual write-temp-then-rename would drop it.
func rewrite(f *os.File, data []byte) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// backoff returns the sleep before retry attempt+1: uniform in
// [b*2^attempt, 3*b*2^attempt), capped by MaxDelay.
func (s *Store) backoff(attempt int) time.Duration {
	lo := s.cfg.BaseDelay << min(attempt, maxBackoffShift)
	d := s.cfg.Jitter(lo, 3*lo)
	if s.cfg.MaxDelay > 0 && d > s.cfg.MaxDelay {
		d = s.cfg.MaxDelay
	}
	return d
}

func uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ReadAll returns every record in the shared file. A missing, empty or
// unreadable file yields an empty list. Parsed documents are cached for
// CacheTTL; callers get their own copy.
func (s *Store) ReadAll(ctx context.Context) []UserStat {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.cfg.Now().Sub(s.fetchedAt) < s.cfg.CacheTTL {
		return slices.Clone(s.cached)
	}

	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.FromContext(ctx).Debug("stats not readable", "path", s.cfg.Path, "err", err)
		}
		return nil
	}
	list, err := decode(data)
	if err != nil {
		log.FromContext(ctx).Debug("stats file corrupt, treating as empty", "path", s.cfg.Path, "err", err)
		return nil
	}
	if list == nil {
		// Blank content is also what a reader sees between a writer's
		// truncate and write; serve it once without caching.
		return nil
	}

	s.cached = list
	s.fetchedAt = s.cfg.Now()
	return slices.Clone(list)
}

// GetMyStats returns identity's totals, zero if the user has no record.
func (s *Store) GetMyStats(ctx context.Context, identity string) Totals {
	for _, u := range s.ReadAll(ctx) {
		if u.Name == identity {
			return u.Totals()
		}
	}
	return Totals{}
}

func (s *Store) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// SortKey selects the leaderboard ranking.
type SortKey string

const (
	BySwitches SortKey = "switches"
	ByDuration SortKey = "duration"
	BySpace    SortKey = "space"
)

// SortKeys lists the valid ranking keys.
var SortKeys = []SortKey{BySwitches, ByDuration, BySpace}

// ParseSortKey validates a ranking key.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(s))
	if !slices.Contains(SortKeys, k) {
		return "", fmt.Errorf("invalid sort key %q (valid: switches, duration, space)", s)
	}
	return k, nil
}

// Leaderboard returns all records ranked by key, highest first, ties by name.
func (s *Store) Leaderboard(ctx context.Context, by SortKey) []UserStat {
	list := s.ReadAll(ctx)
	slices.SortStableFunc(list, func(a, b UserStat) int {
		if c := compareBy(by, a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return list
}

// compareBy orders descending on the selected counter.
func compareBy(by SortKey, a, b UserStat) int {
	switch by {
	case ByDuration:
		return cmp.Compare(b.TotalDuration, a.TotalDuration)
	case BySpace:
		return cmp.Compare(b.TotalSpaceCleaned, a.TotalSpaceCleaned)
	default:
		return cmp.Compare(b.TotalSwitches, a.TotalSwitches)
	}
}
