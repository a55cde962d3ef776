package main

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ardanlabs/collatz/collatz"
)

// computeMethod is the full name of the Compute RPC.
const computeMethod = "/collatz.Collatz/Compute"

// collatzServer is the server API of the collatz.Collatz service.
// Compute takes m as a decimal string and returns the result fields
// and both equations.
type collatzServer interface {
	Compute(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var collatzServiceDesc = grpc.ServiceDesc{
	ServiceName: "collatz.Collatz",
	HandlerType: (*collatzServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Compute",
			Handler:    computeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "collatz.proto",
}

func computeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(collatzServer).Compute(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: computeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(collatzServer).Compute(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// rpcServer serves Compute from the same store as the HTTP handler.
type rpcServer struct {
	h *collatzHandler
}

func (s *rpcServer) Compute(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	m, err := parseM(in.GetValue())
	if err != nil {
		computeTotal.WithLabelValues("invalid").Inc()
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.h.result(ctx, m)
	if err != nil {
		kind := outcome(err)
		computeTotal.WithLabelValues(kind).Inc()
		switch kind {
		case "invalid":
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case "limit":
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		s.h.logger.Error("compute", "m", m, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	computeSteps.Observe(float64(res.Steps()))

	return resultStruct(res)
}

// resultStruct converts r to a protobuf Struct, big integers as strings.
func resultStruct(r *collatz.Result) (*structpb.Struct, error) {
	n := make([]any, 0, r.Log3())
	for _, v := range r.N() {
		n = append(n, v)
	}
	cycle := make([]any, 0, r.Steps()+1)
	for _, v := range collatz.FormatInts(r.Cycle()) {
		cycle = append(cycle, v)
	}

	return structpb.NewStruct(map[string]any{
		"m":        r.M().String(),
		"log2":     r.Log2(),
		"log3":     r.Log3(),
		"n":        n,
		"cycle":    cycle,
		"factored": r.FactoredEquation(),
		"numeric":  r.NumericEquation(),
	})
}

func newGRPCServer(h *collatzHandler) *grpc.Server {
	srv := grpc.NewServer()
	srv.RegisterService(&collatzServiceDesc, &rpcServer{h})
	return srv
}
