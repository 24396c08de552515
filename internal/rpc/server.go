package rpc

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/stats"
)

// StatsSource supplies the current counters.
type StatsSource interface {
	Snapshot() stats.Counters
}

// Service classifies observations on demand and reports the bin's
// counters. Classification here is read-only: nothing is actuated or
// counted.
type Service struct {
	classifier *classifier.Classifier
	stats      StatsSource
}

// NewService creates a Sorter implementation.
func NewService(c *classifier.Classifier, s StatsSource) *Service {
	return &Service{classifier: c, stats: s}
}

// Register adds the Sorter service to server.
func Register(server *grpc.Server, c *classifier.Classifier, s StatsSource) {
	server.RegisterService(&ServiceDesc, NewService(c, s))
	log.Printf("RPC: registered %s", ServiceName)
}

// Classify implements SorterServer.
func (s *Service) Classify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	d, a, err := ObservationFromStruct(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "classify request: %v", err)
	}
	out, err := ResultToStruct(s.classifier.Classify(d, a))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// Stats implements SorterServer.
func (s *Service) Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.stats == nil {
		return nil, status.Error(codes.Unavailable, "statistics not tracked")
	}
	out, err := CountersToStruct(s.stats.Snapshot())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode counters: %v", err)
	}
	return out, nil
}
