package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region client-struct
// Client wraps the gRPC connection to a bin's Sorter service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the Sorter service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client on an existing connection.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region classify
// Classify asks the bin to classify an observation without depositing it.
func (c *Client) Classify(ctx context.Context, d sensor.DigitalObservation, a sensor.AnalogObservation) (classifier.Result, error) {
	in, err := ObservationToStruct(d, a)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("encode observation: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, classifyMethod, in, out); err != nil {
		return classifier.Result{}, fmt.Errorf("classify rpc: %w", err)
	}
	r, err := ResultFromStruct(out)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("decode result: %w", err)
	}
	return r, nil
}

// #endregion classify

// #region stats
// Stats fetches the bin's counters.
func (c *Client) Stats(ctx context.Context) (stats.Counters, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statsMethod, &structpb.Struct{}, out); err != nil {
		return stats.Counters{}, fmt.Errorf("stats rpc: %w", err)
	}
	return CountersFromStruct(out), nil
}

// #endregion stats
