package rpcserver

import (
	"context"
	"fmt"

	"github.com/matteobertozzi/r5lrpc/pkg/rpcerr"
	"github.com/matteobertozzi/r5lrpc/pkg/schema"
	"github.com/matteobertozzi/r5lrpc/pkg/schema/fieldstruct"
)

// HandlerFunc executes one RPC call's request body and returns its
// response body, or a *rpcerr.Error describing why it could not. Handlers
// never panic to signal failure; the dispatcher turns a non-nil error
// into a status-response body.
type HandlerFunc func(ctx context.Context, req *fieldstruct.Instance) (*fieldstruct.Instance, *rpcerr.Error)

// Service binds a schema.RpcService's calls to HandlerFuncs.
type Service struct {
	Schema   *schema.RpcService
	handlers map[uint64]HandlerFunc
}

// NewService creates an empty Service over svc; Handle registers each
// call's implementation before Connection.Run starts dispatching.
func NewService(svc *schema.RpcService) *Service {
	return &Service{Schema: svc, handlers: make(map[uint64]HandlerFunc)}
}

// Handle registers fn as the implementation of callName. Returns an error
// if callName is not declared on the underlying schema.RpcService.
func (s *Service) Handle(callName string, fn HandlerFunc) error {
	for i := range s.Schema.Calls {
		if s.Schema.Calls[i].Name == callName {
			s.handlers[s.Schema.Calls[i].UID] = fn
			return nil
		}
	}
	return fmt.Errorf("rpcserver: service %q has no call %q", s.Schema.Name, callName)
}

func (s *Service) lookup(msgType uint64) (*schema.RpcCall, HandlerFunc, bool) {
	call, ok := s.Schema.CallByUID(msgType)
	if !ok {
		return nil, nil, false
	}
	fn, ok := s.handlers[msgType]
	if !ok {
		return call, nil, false
	}
	return call, fn, true
}
