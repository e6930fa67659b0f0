package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/delfinacorr/hello-tiburona/internal/clock"
)

// Tier selects a storage partition.
type Tier uint8

const (
	// Instance holds small always-resident state sharing one lifetime window.
	Instance Tier = iota
	// Persistent holds records that each carry their own lifetime window.
	Persistent
)

func (t Tier) String() string {
	switch t {
	case Instance:
		return "instance"
	case Persistent:
		return "persistent"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

var (
	ErrNotFound = errors.New("store: not found")
	ErrArchived = errors.New("store: archived")
)

var (
	bucketInstance   = []byte("instance")
	bucketPersistent = []byte("persistent")
	bucketMeta       = []byte("meta")

	metaInstanceExpiry = []byte("instance_expires_at")
)

// Store is a two-tier key/value store with explicit lifetime management.
// Every Update runs in a single bbolt transaction, so a callback's writes
// commit together or not at all.
type Store struct {
	db     *bolt.DB
	clock  clock.Clock
	minTTL time.Duration
	maxTTL time.Duration
}

type Options struct {
	// Clock drives expiry checks. Defaults to the wall clock.
	Clock clock.Clock
	// MinTTL is the lifetime given to newly created entries and to the
	// instance tier on its first write.
	MinTTL time.Duration
	// MaxTTL caps every extension. Zero means uncapped.
	MaxTTL time.Duration
}

// Open initializes or opens a Store at the given path.
func Open(path string, opts Options) (*Store, error) {
	if opts.MinTTL <= 0 {
		return nil, fmt.Errorf("store: MinTTL must be positive, got %s", opts.MinTTL)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketInstance, bucketPersistent, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, clock: opts.Clock, minTTL: opts.MinTTL, maxTTL: opts.MaxTTL}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Update runs fn in a read-write transaction. If fn returns an error nothing
// it wrote is persisted.
func (s *Store) Update(fn func(*Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx, s: s, now: s.clock.Now()})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(*Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx, s: s, now: s.clock.Now()})
	})
}

// Tx is a view of both tiers at a single instant.
type Tx struct {
	tx  *bolt.Tx
	s   *Store
	now time.Time
}

// Get returns the value stored under key. It fails with ErrNotFound when the
// key is absent and ErrArchived when its lifetime window has elapsed.
func (t *Tx) Get(tier Tier, key []byte) ([]byte, error) {
	switch tier {
	case Instance:
		if err := t.instanceLive(); err != nil {
			return nil, err
		}
		v := t.tx.Bucket(bucketInstance).Get(key)
		if v == nil {
			return nil, ErrNotFound
		}
		return append([]byte(nil), v...), nil
	case Persistent:
		exp, v, err := t.persistentEntry(key)
		if err != nil {
			return nil, err
		}
		if t.expired(exp) {
			return nil, ErrArchived
		}
		return append([]byte(nil), v...), nil
	default:
		return nil, fmt.Errorf("store: unknown %s", tier)
	}
}

// Has reports whether a live value exists under key.
func (t *Tx) Has(tier Tier, key []byte) (bool, error) {
	_, err := t.Get(tier, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Set stores value under key. New persistent records, and records written
// after they were archived, start a fresh MinTTL window; overwriting a live
// record keeps its current expiry.
func (t *Tx) Set(tier Tier, key, value []byte) error {
	switch tier {
	case Instance:
		exp, err := t.instanceExpiry()
		switch {
		case errors.Is(err, ErrNotFound):
			if err := t.putInstanceExpiry(t.now.Add(t.s.minTTL)); err != nil {
				return err
			}
		case err != nil:
			return err
		case t.expired(exp):
			return ErrArchived
		}
		return t.tx.Bucket(bucketInstance).Put(key, value)
	case Persistent:
		exp, _, err := t.persistentEntry(key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err != nil || t.expired(exp) {
			exp = t.now.Add(t.s.minTTL)
		}
		return t.putPersistent(key, exp, value)
	default:
		return fmt.Errorf("store: unknown %s", tier)
	}
}

// ExtendInstanceTTL extends the instance tier's lifetime to extendTo when
// less than threshold remains.
func (t *Tx) ExtendInstanceTTL(threshold, extendTo time.Duration) error {
	exp, err := t.instanceExpiry()
	if err != nil {
		return err
	}
	if t.expired(exp) {
		return ErrArchived
	}
	if next, ok := t.extended(exp, threshold, extendTo); ok {
		return t.putInstanceExpiry(next)
	}
	return nil
}

// ExtendTTL extends a persistent record's lifetime to extendTo when less
// than threshold remains.
func (t *Tx) ExtendTTL(key []byte, threshold, extendTo time.Duration) error {
	exp, v, err := t.persistentEntry(key)
	if err != nil {
		return err
	}
	if t.expired(exp) {
		return ErrArchived
	}
	if next, ok := t.extended(exp, threshold, extendTo); ok {
		return t.putPersistent(key, next, append([]byte(nil), v...))
	}
	return nil
}

// RestoreInstance brings an archived instance tier back with a fresh MinTTL
// window, keeping its data. It reports whether anything was restored; a
// live or never-written tier is left alone.
func (t *Tx) RestoreInstance() (bool, error) {
	exp, err := t.instanceExpiry()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !t.expired(exp) {
		return false, nil
	}
	return true, t.putInstanceExpiry(t.now.Add(t.s.minTTL))
}

// Restore brings an archived persistent record back with a fresh MinTTL
// window, keeping its value. It reports whether the record was archived and
// fails with ErrNotFound when no record exists under key.
func (t *Tx) Restore(key []byte) (bool, error) {
	exp, v, err := t.persistentEntry(key)
	if err != nil {
		return false, err
	}
	if !t.expired(exp) {
		return false, nil
	}
	return true, t.putPersistent(key, t.now.Add(t.s.minTTL), append([]byte(nil), v...))
}

// InstanceTTL returns the remaining lifetime of the instance tier.
func (t *Tx) InstanceTTL() (time.Duration, error) {
	exp, err := t.instanceExpiry()
	if err != nil {
		return 0, err
	}
	return t.remaining(exp), nil
}

// TTL returns the remaining lifetime of a persistent record.
func (t *Tx) TTL(key []byte) (time.Duration, error) {
	exp, _, err := t.persistentEntry(key)
	if err != nil {
		return 0, err
	}
	return t.remaining(exp), nil
}

func (t *Tx) extended(exp time.Time, threshold, extendTo time.Duration) (time.Time, bool) {
	if t.remaining(exp) >= threshold {
		return time.Time{}, false
	}
	if t.s.maxTTL > 0 && extendTo > t.s.maxTTL {
		extendTo = t.s.maxTTL
	}
	return t.now.Add(extendTo), true
}

func (t *Tx) remaining(exp time.Time) time.Duration {
	if t.expired(exp) {
		return 0
	}
	return exp.Sub(t.now)
}

func (t *Tx) expired(exp time.Time) bool {
	return !t.now.Before(exp)
}

func (t *Tx) instanceLive() error {
	exp, err := t.instanceExpiry()
	if errors.Is(err, ErrNotFound) {
		// Never written: empty but live.
		return nil
	}
	if err != nil {
		return err
	}
	if t.expired(exp) {
		return ErrArchived
	}
	return nil
}

func (t *Tx) instanceExpiry() (time.Time, error) {
	v := t.tx.Bucket(bucketMeta).Get(metaInstanceExpiry)
	if v == nil {
		return time.Time{}, ErrNotFound
	}
	if len(v) != 8 {
		return time.Time{}, fmt.Errorf("store: corrupt instance expiry (%d bytes)", len(v))
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(v))), nil
}

func (t *Tx) putInstanceExpiry(exp time.Time) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(exp.UnixNano()))
	return t.tx.Bucket(bucketMeta).Put(metaInstanceExpiry, buf)
}

// Layout: 8 bytes big endian expiresAt (unix nanoseconds) || raw value
func (t *Tx) persistentEntry(key []byte) (time.Time, []byte, error) {
	v := t.tx.Bucket(bucketPersistent).Get(key)
	if v == nil {
		return time.Time{}, nil, ErrNotFound
	}
	if len(v) < 8 {
		return time.Time{}, nil, fmt.Errorf("store: corrupt record (%d bytes)", len(v))
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(v[:8]))), v[8:], nil
}

func (t *Tx) putPersistent(key []byte, exp time.Time, value []byte) error {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp.UnixNano()))
	copy(buf[8:], value)
	return t.tx.Bucket(bucketPersistent).Put(key, buf)
}
