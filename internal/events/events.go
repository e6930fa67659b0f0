package events

import (
	"context"

	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

// Event topic constants
const (
	TopicInitialized      = "tiburona.contract.initialized"
	TopicLimitUpdated     = "tiburona.limit.updated"
	TopicGreetingRecorded = "tiburona.greeting.recorded"
	TopicCounterReset     = "tiburona.counter.reset"
	TopicAdminTransferred = "tiburona.admin.transferred"
	TopicStateRestored    = "tiburona.state.restored"

	// TopicAll matches every topic above.
	TopicAll = "tiburona.>"
)

type Initialized struct {
	Admin identity.Identity `json:"admin"`
}

type LimitUpdated struct {
	Admin identity.Identity `json:"admin"`
	Limit uint32            `json:"limit"`
}

type GreetingRecorded struct {
	Identity    identity.Identity `json:"identity"`
	Name        string            `json:"name"`
	Counter     uint32            `json:"counter"`
	UserCounter uint32            `json:"user_counter"`
}

type CounterReset struct {
	Admin identity.Identity `json:"admin"`
}

type AdminTransferred struct {
	From identity.Identity `json:"from"`
	To   identity.Identity `json:"to"`
}

// StateRestored reports which archived state a restore brought back.
type StateRestored struct {
	Instance bool              `json:"instance"`
	Identity identity.Identity `json:"identity,omitempty"`
	Greeting bool              `json:"greeting"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher drops every event. The daemon uses it when no NATS URL is
// configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
