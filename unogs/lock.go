package unogs

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	// DefaultRateLimitPadding is the remaining-request count at which requests stop
	DefaultRateLimitPadding = 5
	// RateLimitWindow is how long after locking the remote limit is assumed to reset
	RateLimitWindow = 24 * time.Hour

	rapidAPISuffix = ".p.rapidapi.com"
)

// LockState is the state of a lock record
type LockState int

const (
	// LockAbsent means there is no lock file
	LockAbsent LockState = iota
	// LockLocked means requests are refused until the window rolls over
	LockLocked
	// LockPending means the window was assumed to roll over and the next
	// response decides whether that was right
	LockPending
)

// String returns the token written to the lock file
func (s LockState) String() string {
	switch s {
	case LockLocked:
		return "locked"
	case LockPending:
		return "pending"
	default:
		return "absent"
	}
}

func parseLockState(token string) (LockState, error) {
	switch token {
	case "locked":
		return LockLocked, nil
	case "pending":
		return LockPending, nil
	default:
		return LockAbsent, fmt.Errorf("%w: unknown status %q", ErrInvalidLockRecord, token)
	}
}

// LockRecord is the parsed content of a lock file
type LockRecord struct {
	State LockState
	// Timestamp is zero when the file's timestamp could not be parsed
	Timestamp time.Time
}

// APIName derives the lock file name for an endpoint: its host, minus the
// RapidAPI suffix, with port separators replaced.
func APIName(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	name := strings.TrimSuffix(u.Host, rapidAPISuffix)
	return strings.ReplaceAll(name, ":", "_"), nil
}

// LockPath returns the default lock file path for an endpoint
func LockPath(dir, endpoint string) (string, error) {
	name, err := APIName(endpoint)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Limiter gates outbound requests using a lock file shared by every query
// against the same API host.
type Limiter struct {
	fs      afero.Fs
	path    string
	padding int
	now     Clock
	logger  zerolog.Logger
}

// LimiterOption configures a Limiter
type LimiterOption func(*Limiter)

// WithLimiterClock sets the time source used for rollover checks
func WithLimiterClock(now Clock) LimiterOption {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLimiterFs sets the filesystem holding the lock file
func WithLimiterFs(fs afero.Fs) LimiterOption {
	return func(l *Limiter) {
		l.fs = fs
	}
}

// WithPadding sets the remaining-request threshold that triggers a lock
func WithPadding(padding int) LimiterOption {
	return func(l *Limiter) {
		if padding >= 0 {
			l.padding = padding
		}
	}
}

// NewLimiter creates a limiter backed by the lock file at path
func NewLimiter(path string, logger zerolog.Logger, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		fs:      afero.NewOsFs(),
		path:    path,
		padding: DefaultRateLimitPadding,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file path
func (l *Limiter) Path() string {
	return l.path
}

// Padding returns the lock threshold
func (l *Limiter) Padding() int {
	return l.padding
}

// Status reads the lock record without changing it
func (l *Limiter) Status() (LockRecord, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LockRecord{State: LockAbsent}, nil
		}
		return LockRecord{}, fmt.Errorf("failed to read lock file: %w", err)
	}

	// "{unix} {status}", or a bare status when the timestamp is missing
	fields := strings.Fields(string(data))
	var rawTS string
	switch len(fields) {
	case 1:
	case 2:
		rawTS = fields[0]
	default:
		return LockRecord{}, fmt.Errorf("%w: %s: %q", ErrInvalidLockRecord, l.path, string(data))
	}

	state, err := parseLockState(fields[len(fields)-1])
	if err != nil {
		return LockRecord{}, fmt.Errorf("%s: %w", l.path, err)
	}

	record := LockRecord{State: state}
	if ts, err := strconv.ParseInt(rawTS, 10, 64); err == nil {
		record.Timestamp = time.Unix(ts, 0)
	}
	return record, nil
}

// RateLimitRefreshed guesses whether the remote limit has rolled over since ts
func (l *Limiter) RateLimitRefreshed(ts time.Time) bool {
	return l.now().Unix() >= ts.Add(RateLimitWindow).Unix()
}

// IsLocked returns true if requests must not be made. A pending record is
// forgotten, and a locked record past its window is turned into a pending one.
func (l *Limiter) IsLocked() (bool, error) {
	record, err := l.Status()
	if err != nil {
		return false, err
	}

	switch record.State {
	case LockAbsent:
		return false, nil
	case LockPending:
		if err := l.Clear(); err != nil {
			return false, err
		}
		l.logger.Debug().Str("lockfile", l.path).Msg("Removed pending rate limit lock")
		return false, nil
	}

	if record.Timestamp.IsZero() {
		return false, fmt.Errorf("%w: %s: missing timestamp", ErrInvalidLockRecord, l.path)
	}

	if l.RateLimitRefreshed(record.Timestamp) {
		if err := l.Lock(record.Timestamp, LockPending); err != nil {
			return false, err
		}
		l.logger.Info().
			Str("lockfile", l.path).
			Time("locked_at", record.Timestamp).
			Msg("Rate limit assumed refreshed, lock is pending")
		return false, nil
	}

	return true, nil
}

// RecordSuccess locks further requests when remaining is at or below the padding
func (l *Limiter) RecordSuccess(remaining int) error {
	if remaining > l.padding {
		return nil
	}

	l.logger.Warn().
		Int("remaining", remaining).
		Int("padding", l.padding).
		Str("lockfile", l.path).
		Msg("Rate limit nearly exhausted, locking further requests")

	return l.Lock(l.now(), LockLocked)
}

// Lock writes a lock record. It refuses to overwrite a pending record, since
// that means the remote limit did not reset when it was assumed to.
func (l *Limiter) Lock(ts time.Time, state LockState) error {
	if state != LockLocked && state != LockPending {
		return fmt.Errorf("cannot write lock state %s", state)
	}

	current, err := l.Status()
	if err != nil && !errors.Is(err, ErrInvalidLockRecord) {
		return err
	}
	if err == nil && current.State == LockPending {
		return fmt.Errorf("%w: see file %s", ErrInvariantViolation, filepath.Base(l.path))
	}

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	content := fmt.Sprintf("%d %s", ts.Unix(), state)
	if err := afero.WriteFile(l.fs, l.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Clear removes the lock file if present
func (l *Limiter) Clear() error {
	if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
