package greeter

import (
	"context"

	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

// Service is the public operation set. *Contract implements it against a
// local store; rpc.Client implements it against a running daemon.
type Service interface {
	Initialize(ctx context.Context, admin identity.Identity) error
	SetLimit(ctx context.Context, caller identity.Identity, limit uint32) error
	Hello(ctx context.Context, caller identity.Identity, name string) (string, error)
	Counter(ctx context.Context) (uint32, error)
	LastGreeting(ctx context.Context, id identity.Identity) (string, bool, error)
	ResetCounter(ctx context.Context, caller identity.Identity) error
	UserCounter(ctx context.Context, id identity.Identity) (uint32, error)
	// Admin panics when the contract has not been initialized.
	Admin(ctx context.Context) (identity.Identity, error)
	TransferAdmin(ctx context.Context, caller, newAdmin identity.Identity) error
	// Restore revives archived state; see Contract.Restore.
	Restore(ctx context.Context, id identity.Identity) (bool, error)
}

var _ Service = (*Contract)(nil)
