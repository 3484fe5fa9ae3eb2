package rpc

import (
	"context"
	"log"

	"google.golang.org/grpc"

	"github.com/ssokpay/transfer-service/internal/rpcstatus"
	"github.com/ssokpay/transfer-service/internal/store"
)

// TransferQueryServer is the handler contract for the transfer RPC surface
// exposed to peer services.
type TransferQueryServer interface {
	ListRecentCounterparties(ctx context.Context, req *ListRecentCounterpartiesRequest) (*ListRecentCounterpartiesResponse, error)
}

// TransferServiceDesc is the hand-written service descriptor for the
// transfer RPC surface. It plays the role generated stubs usually play.
var TransferServiceDesc = grpc.ServiceDesc{
	ServiceName: "ssok.transfer.v1.TransferService",
	HandlerType: (*TransferQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRecentCounterparties", Handler: listRecentCounterpartiesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "transfer.proto",
}

func listRecentCounterpartiesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListRecentCounterpartiesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferQueryServer).ListRecentCounterparties(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TransferCounterpartiesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferQueryServer).ListRecentCounterparties(ctx, req.(*ListRecentCounterpartiesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// TransferServer serves recent-counterparty lookups from the ledger to peer
// services. Failures are encoded through the status codec so callers get a
// typed error, not a bare transport code.
type TransferServer struct {
	repo store.Repository
}

// NewTransferServer creates the transfer RPC server over the ledger store.
func NewTransferServer(repo store.Repository) *TransferServer {
	return &TransferServer{repo: repo}
}

// RegisterTransferServer attaches the transfer surface to a gRPC server.
func RegisterTransferServer(s grpc.ServiceRegistrar, srv *TransferServer) {
	s.RegisterService(&TransferServiceDesc, srv)
}

// ListRecentCounterparties returns the accounts the given account has
// recently sent money to, newest first.
func (s *TransferServer) ListRecentCounterparties(ctx context.Context, req *ListRecentCounterpartiesRequest) (*ListRecentCounterpartiesResponse, error) {
	if req.AccountID <= 0 {
		return nil, failCall(ctx, rpcstatus.RemoteStatus{
			Code:       rpcstatus.CodeAccountLookupFailed,
			TypeName:   "AccountLookupException",
			Message:    "account id must be positive",
			HTTPStatus: 400,
		})
	}

	limit := req.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	items, err := s.repo.ListRecentCounterparties(ctx, req.AccountID, limit)
	if err != nil {
		log.Printf("level=error component=transfer_rpc op=list_recent_counterparties account_id=%d err=%v", req.AccountID, err)
		return nil, failCall(ctx, rpcstatus.RemoteStatus{
			Code:       rpcstatus.CodeAccountServiceError,
			TypeName:   "TransferServiceException",
			Message:    "recent counterparty lookup failed",
			HTTPStatus: 500,
		})
	}

	return &ListRecentCounterpartiesResponse{Counterparties: items}, nil
}

// failCall writes the remote status into trailer metadata and returns the
// matching transport error.
func failCall(ctx context.Context, st rpcstatus.RemoteStatus) error {
	md, err := rpcstatus.Encode(st)
	_ = grpc.SetTrailer(ctx, md)
	return err
}

var _ TransferQueryServer = (*TransferServer)(nil)
