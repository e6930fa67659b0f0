// Package greeter holds the tiburona state machine: an admin-gated
// character limit, a global greeting counter, and per-identity greeting
// records, each kept alive by explicit lifetime extension.
package greeter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/delfinacorr/hello-tiburona/internal/events"
	"github.com/delfinacorr/hello-tiburona/internal/identity"
	"github.com/delfinacorr/hello-tiburona/internal/logger"
	"github.com/delfinacorr/hello-tiburona/internal/store"
)

const (
	// DefaultCharLimit applies until SetLimit has been called.
	DefaultCharLimit uint32 = 32

	// DefaultTTL is 17280 ledgers at a 5s close time, one day.
	DefaultTTL = 17280 * 5 * time.Second

	// SuccessToken is what Hello returns on success.
	SuccessToken = "Hola"
)

type Options struct {
	// TTLThreshold is the remaining lifetime below which a touched entry is
	// extended.
	TTLThreshold time.Duration
	// TTLExtendTo is the lifetime an extended entry gets.
	TTLExtendTo time.Duration
	// Publisher receives an event after each committed mutation.
	Publisher events.Publisher
}

// DefaultOptions returns Options with the one-day lifetime window and no
// event publishing.
func DefaultOptions() Options {
	return Options{
		TTLThreshold: DefaultTTL,
		TTLExtendTo:  DefaultTTL,
		Publisher:    &events.NoopPublisher{},
	}
}

// Contract runs every operation in a single store transaction, so a failed
// operation leaves no partial writes behind.
type Contract struct {
	store *store.Store
	opts  Options
}

func New(s *store.Store, opts Options) *Contract {
	def := DefaultOptions()
	if opts.TTLThreshold <= 0 {
		opts.TTLThreshold = def.TTLThreshold
	}
	if opts.TTLExtendTo <= 0 {
		opts.TTLExtendTo = def.TTLExtendTo
	}
	if opts.Publisher == nil {
		opts.Publisher = def.Publisher
	}
	return &Contract{store: s, opts: opts}
}

// Initialize records admin as the administrator and zeroes the greeting
// counter. It succeeds exactly once.
func (c *Contract) Initialize(ctx context.Context, admin identity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := admin.Validate(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	err := c.store.Update(func(tx *store.Tx) error {
		ok, err := tx.Has(store.Instance, AdminKey().Bytes())
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyInitialized
		}
		if err := tx.Set(store.Instance, AdminKey().Bytes(), []byte(admin)); err != nil {
			return err
		}
		if err := tx.Set(store.Instance, GreetingCountKey().Bytes(), encodeUint32(0)); err != nil {
			return err
		}
		return c.extendInstance(tx)
	})
	if err != nil {
		return opError("initialize", err)
	}
	logger.Infof("initialized with admin %s", admin)
	c.publish(ctx, events.TopicInitialized, events.Initialized{Admin: admin})
	return nil
}

// SetLimit stores the maximum greeting length. Only the admin may call it.
func (c *Contract) SetLimit(ctx context.Context, caller identity.Identity, limit uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.store.Update(func(tx *store.Tx) error {
		if err := c.requireAdmin(tx, caller); err != nil {
			return err
		}
		if err := tx.Set(store.Instance, CharLimitKey().Bytes(), encodeUint32(limit)); err != nil {
			return err
		}
		return c.extendInstance(tx)
	})
	if err != nil {
		return opError("set limit", err)
	}
	logger.Infof("character limit set to %d by %s", limit, caller)
	c.publish(ctx, events.TopicLimitUpdated, events.LimitUpdated{Admin: caller, Limit: limit})
	return nil
}

// Hello validates name against the effective limit, records it as caller's
// last greeting and bumps both counters. Name length is counted in bytes.
func (c *Contract) Hello(ctx context.Context, caller identity.Identity, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(name) == 0 {
		return "", ErrEmptyName
	}
	if err := caller.Validate(); err != nil {
		return "", fmt.Errorf("hello: caller: %w", err)
	}

	var total, mine uint32
	err := c.store.Update(func(tx *store.Tx) error {
		limit, err := c.effectiveLimit(tx)
		if err != nil {
			return err
		}
		if uint64(len(name)) > uint64(limit) {
			return ErrNameTooLong
		}

		// Both increments are checked before anything is written.
		total, err = c.readCounter(tx, GreetingCountKey())
		if err != nil {
			return err
		}
		mine, err = c.readCounter(tx, UserCountKey(caller))
		if err != nil {
			return err
		}
		if total == math.MaxUint32 || mine == math.MaxUint32 {
			return ErrCounterOverflow
		}
		total++
		mine++

		if err := tx.Set(store.Instance, GreetingCountKey().Bytes(), encodeUint32(total)); err != nil {
			return err
		}
		last := LastGreetingKey(caller).Bytes()
		if err := tx.Set(store.Persistent, last, []byte(name)); err != nil {
			return err
		}
		if err := tx.ExtendTTL(last, c.opts.TTLThreshold, c.opts.TTLExtendTo); err != nil {
			return err
		}
		if err := c.extendInstance(tx); err != nil {
			return err
		}
		return tx.Set(store.Instance, UserCountKey(caller).Bytes(), encodeUint32(mine))
	})
	if err != nil {
		return "", opError("hello", err)
	}
	logger.Infof("greeting from %s recorded (total %d, user %d)", caller, total, mine)
	c.publish(ctx, events.TopicGreetingRecorded, events.GreetingRecorded{
		Identity:    caller,
		Name:        name,
		Counter:     total,
		UserCounter: mine,
	})
	return SuccessToken, nil
}

// Counter returns the global greeting count.
func (c *Contract) Counter(ctx context.Context) (uint32, error) {
	return c.viewCounter(ctx, "counter", GreetingCountKey())
}

// UserCounter returns how many times id has greeted.
func (c *Contract) UserCounter(ctx context.Context, id identity.Identity) (uint32, error) {
	return c.viewCounter(ctx, "user counter", UserCountKey(id))
}

// LastGreeting returns the most recent text id greeted with. ok is false
// when id has never greeted. Reading does not extend the record's lifetime.
func (c *Contract) LastGreeting(ctx context.Context, id identity.Identity) (text string, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	err = c.store.View(func(tx *store.Tx) error {
		v, err := tx.Get(store.Persistent, LastGreetingKey(id).Bytes())
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		text, ok = string(v), true
		return nil
	})
	if err != nil {
		return "", false, opError("last greeting", err)
	}
	return text, ok, nil
}

// ResetCounter zeroes the global counter. Per-identity counters and records
// are untouched. Only the admin may call it.
func (c *Contract) ResetCounter(ctx context.Context, caller identity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.store.Update(func(tx *store.Tx) error {
		if err := c.requireAdmin(tx, caller); err != nil {
			return err
		}
		if err := tx.Set(store.Instance, GreetingCountKey().Bytes(), encodeUint32(0)); err != nil {
			return err
		}
		return c.extendInstance(tx)
	})
	if err != nil {
		return opError("reset counter", err)
	}
	logger.Infof("greeting counter reset by %s", caller)
	c.publish(ctx, events.TopicCounterReset, events.CounterReset{Admin: caller})
	return nil
}

// Admin returns the current admin. Calling it before Initialize is a
// programming error and panics with PanicAdminUnset.
func (c *Contract) Admin(ctx context.Context) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var admin identity.Identity
	err := c.store.View(func(tx *store.Tx) error {
		var err error
		admin, err = c.lookupAdmin(tx)
		return err
	})
	if errors.Is(err, ErrNotInitialized) {
		panic(PanicAdminUnset)
	}
	if err != nil {
		return "", opError("admin", err)
	}
	return admin, nil
}

// TransferAdmin hands the admin role from caller to newAdmin. Unlike the
// other admin operations it does not extend the instance lifetime.
func (c *Contract) TransferAdmin(ctx context.Context, caller, newAdmin identity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := newAdmin.Validate(); err != nil {
		return fmt.Errorf("transfer admin: %w", err)
	}
	err := c.store.Update(func(tx *store.Tx) error {
		if err := c.requireAdmin(tx, caller); err != nil {
			return err
		}
		return tx.Set(store.Instance, AdminKey().Bytes(), []byte(newAdmin))
	})
	if err != nil {
		return opError("transfer admin", err)
	}
	logger.Infof("admin transferred from %s to %s", caller, newAdmin)
	c.publish(ctx, events.TopicAdminTransferred, events.AdminTransferred{From: caller, To: newAdmin})
	return nil
}

// Restore brings archived state back with a fresh minimum lifetime, keeping
// its data. The instance record (admin, limit and counters) is always
// considered; id's last greeting is too when id is non-empty. Anyone may
// call it. restored is false when nothing was archived.
func (c *Contract) Restore(ctx context.Context, id identity.Identity) (restored bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ev := events.StateRestored{Identity: id}
	err = c.store.Update(func(tx *store.Tx) error {
		var err error
		if ev.Instance, err = tx.RestoreInstance(); err != nil {
			return err
		}
		if id == "" {
			return nil
		}
		ev.Greeting, err = tx.Restore(LastGreetingKey(id).Bytes())
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, opError("restore", err)
	}
	if !ev.Instance && !ev.Greeting {
		return false, nil
	}
	logger.Infof("restored archived state (instance %t, greeting of %q %t)", ev.Instance, id, ev.Greeting)
	c.publish(ctx, events.TopicStateRestored, ev)
	return true, nil
}

func (c *Contract) viewCounter(ctx context.Context, op string, k Key) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n uint32
	err := c.store.View(func(tx *store.Tx) error {
		var err error
		n, err = c.readCounter(tx, k)
		return err
	})
	if err != nil {
		return 0, opError(op, err)
	}
	return n, nil
}

// readCounter returns the counter under k, or 0 when it was never written.
func (c *Contract) readCounter(tx *store.Tx, k Key) (uint32, error) {
	n, found, err := lookupUint32(tx, k)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return n, nil
}

// effectiveLimit returns the stored limit, or DefaultCharLimit when unset.
func (c *Contract) effectiveLimit(tx *store.Tx) (uint32, error) {
	n, found, err := lookupUint32(tx, CharLimitKey())
	if err != nil {
		return 0, err
	}
	if !found {
		return DefaultCharLimit, nil
	}
	return n, nil
}

func lookupUint32(tx *store.Tx, k Key) (uint32, bool, error) {
	v, err := tx.Get(store.Instance, k.Bytes())
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := decodeUint32(k, v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *Contract) lookupAdmin(tx *store.Tx) (identity.Identity, error) {
	v, err := tx.Get(store.Instance, AdminKey().Bytes())
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotInitialized
	}
	if err != nil {
		return "", err
	}
	return identity.Identity(v), nil
}

// requireAdmin is a plain equality check; the caller handle is assumed to
// be authenticated already.
func (c *Contract) requireAdmin(tx *store.Tx, caller identity.Identity) error {
	admin, err := c.lookupAdmin(tx)
	if err != nil {
		return err
	}
	if caller != admin {
		return ErrUnauthorized
	}
	return nil
}

func (c *Contract) extendInstance(tx *store.Tx) error {
	return tx.ExtendInstanceTTL(c.opts.TTLThreshold, c.opts.TTLExtendTo)
}

func (c *Contract) publish(ctx context.Context, topic string, event any) {
	if err := c.opts.Publisher.Publish(ctx, topic, event); err != nil {
		logger.Warnf("publishing %s: %v", topic, err)
	}
}

// opError leaves contract errors bare so callers can match them directly and
// wraps everything else with the operation name.
func opError(op string, err error) error {
	var ce Error
	if errors.As(err, &ce) {
		return ce
	}
	return fmt.Errorf("%s: %w", op, err)
}
