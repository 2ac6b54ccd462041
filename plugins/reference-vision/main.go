package main

import (
	"context"
	"fmt"

	visionrpc "studywarden/internal/modules/analysis/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// server is a deterministic stand-in for a vision model: an empty frame means
// nobody is seated, and the mean byte value decides focus.
type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *visionrpc.Empty) (*visionrpc.Metadata, error) {
	return &visionrpc.Metadata{Name: "reference-vision", Version: "1.0.0", Model: "mean-brightness"}, nil
}

func (s *server) Analyze(_ context.Context, in *visionrpc.AnalyzeRequest) (*visionrpc.AnalyzeResponse, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if len(in.Image) == 0 {
		return &visionrpc.AnalyzeResponse{}, nil
	}
	total := 0
	for _, b := range in.Image {
		total += int(b)
	}
	focused := total/len(in.Image) >= 32
	response := &visionrpc.AnalyzeResponse{Focused: focused, OnSeat: true}
	if focused {
		response.CostUnits = 1
	}
	return response, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: visionrpc.HandshakeConfig,
		Plugins:         visionrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
