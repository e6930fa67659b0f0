package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/logger"
)

// Serve accepts connections on l until ctx is cancelled, handling each one
// in its own goroutine. Writes are serialized by the store, not here.
func Serve(ctx context.Context, l net.Listener, svc greeter.Service) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go handleConn(ctx, conn, svc)
	}
}

func handleConn(ctx context.Context, conn net.Conn, svc greeter.Service) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(Dispatch(ctx, svc, req)); err != nil {
			logger.Warnf("writing response for %s: %v", req.Op, err)
			return
		}
	}
}

// Dispatch runs one request against svc. A panic inside svc becomes a Fatal
// response instead of taking the daemon down.
func Dispatch(ctx context.Context, svc greeter.Service, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s panicked: %v", req.Op, r)
			resp = Response{Error: fmt.Sprint(r), Fatal: true}
		}
	}()

	switch req.Op {
	case OpPing:
		return Response{OK: true}
	case OpInitialize:
		return result(svc.Initialize(ctx, req.Caller))
	case OpSetLimit:
		if err := req.Caller.Validate(); err != nil {
			return failure(fmt.Errorf("caller: %w", err))
		}
		return result(svc.SetLimit(ctx, req.Caller, req.Limit))
	case OpHello:
		if err := req.Caller.Validate(); err != nil {
			return failure(fmt.Errorf("caller: %w", err))
		}
		tok, err := svc.Hello(ctx, req.Caller, req.Name)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Value: tok}
	case OpCounter:
		n, err := svc.Counter(ctx)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Count: n}
	case OpLastGreeting:
		text, ok, err := svc.LastGreeting(ctx, req.Identity)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Value: text, Found: ok}
	case OpResetCounter:
		if err := req.Caller.Validate(); err != nil {
			return failure(fmt.Errorf("caller: %w", err))
		}
		return result(svc.ResetCounter(ctx, req.Caller))
	case OpUserCounter:
		n, err := svc.UserCounter(ctx, req.Identity)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Count: n}
	case OpAdmin:
		id, err := svc.Admin(ctx)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Value: string(id)}
	case OpTransferAdmin:
		if err := req.Caller.Validate(); err != nil {
			return failure(fmt.Errorf("caller: %w", err))
		}
		return result(svc.TransferAdmin(ctx, req.Caller, req.NewAdmin))
	case OpRestore:
		restored, err := svc.Restore(ctx, req.Identity)
		if err != nil {
			return failure(err)
		}
		return Response{OK: true, Found: restored}
	default:
		return Response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func result(err error) Response {
	if err != nil {
		return failure(err)
	}
	return Response{OK: true}
}

func failure(err error) Response {
	resp := Response{Error: err.Error()}
	var ce greeter.Error
	if errors.As(err, &ce) {
		resp.Code = ce.Code()
	}
	return resp
}
