package rpc

import "github.com/delfinacorr/hello-tiburona/internal/identity"

// JSON-line protocol between tiburonad and its clients over a Unix socket.
// A connection carries any number of request/response pairs in order.

const (
	OpPing          = "ping"
	OpInitialize    = "initialize"
	OpSetLimit      = "set_limit"
	OpHello         = "hello"
	OpCounter       = "counter"
	OpLastGreeting  = "last_greeting"
	OpResetCounter  = "reset_counter"
	OpUserCounter   = "user_counter"
	OpAdmin         = "admin"
	OpTransferAdmin = "transfer_admin"
	OpRestore       = "restore"
)

type Request struct {
	Op       string            `json:"op"`
	Caller   identity.Identity `json:"caller,omitempty"`
	Identity identity.Identity `json:"identity,omitempty"`
	Name     string            `json:"name,omitempty"`
	Limit    uint32            `json:"limit,omitempty"`
	NewAdmin identity.Identity `json:"new_admin,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
	Count uint32 `json:"count,omitempty"`
	// Found is the last_greeting presence flag, and for restore whether
	// anything was archived.
	Found bool `json:"found,omitempty"`
	// Code is a greeter.Error code; zero for other failures.
	Code  uint32 `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	// Fatal marks a failure the daemon treats as a programming error.
	Fatal bool `json:"fatal,omitempty"`
}
