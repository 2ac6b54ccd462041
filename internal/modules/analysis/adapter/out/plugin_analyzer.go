package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	visionrpc "studywarden/internal/modules/analysis/adapter/out/rpc"
	"studywarden/internal/modules/analysis/domain"
	analysisout "studywarden/internal/modules/analysis/port/out"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/logging"

	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginAnalyzer keeps one vision plugin process alive and relaunches it when
// it exits between calls.
type PluginAnalyzer struct {
	manifest domain.Manifest
	clock    clock.Clock
	logger   *zap.Logger

	mu     sync.Mutex
	client *plugin.Client
	vision visionrpc.VisionClient
}

var _ analysisout.Analyzer = (*PluginAnalyzer)(nil)

func NewPluginAnalyzer(manifest domain.Manifest, clk clock.Clock, logger *zap.Logger) (*PluginAnalyzer, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginAnalyzer{manifest: manifest, clock: clk, logger: logger}, nil
}

func (a *PluginAnalyzer) Metadata(ctx context.Context) (domain.Metadata, error) {
	vision, err := a.ensure()
	if err != nil {
		return domain.Metadata{}, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := vision.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Model: meta.Model}, nil
}

func (a *PluginAnalyzer) Analyze(ctx context.Context, frame domain.Frame) (domain.Result, error) {
	vision, err := a.ensure()
	if err != nil {
		return domain.Result{}, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := vision.Analyze(callCtx, &visionrpc.AnalyzeRequest{
		SessionID:  frame.SessionID,
		Image:      frame.Image,
		CapturedAt: frame.CapturedAt,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return domain.Result{}, fmt.Errorf("%w: session %s", domain.ErrAnalyzerTimeout, frame.SessionID)
		}
		return domain.Result{}, fmt.Errorf("analyze frame: %w", err)
	}
	result := domain.Result{
		Focused:    response.Focused,
		OnSeat:     response.OnSeat,
		CostUnits:  response.CostUnits,
		AnalyzedAt: a.clock.Now(),
	}
	if err := result.Validate(); err != nil {
		return domain.Result{}, fmt.Errorf("analyzer returned invalid result: %w", err)
	}
	return result, nil
}

func (a *PluginAnalyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		a.client.Kill()
		a.client = nil
		a.vision = nil
	}
	return nil
}

func (a *PluginAnalyzer) ensure() (visionrpc.VisionClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil && !a.client.Exited() {
		return a.vision, nil
	}
	if a.client != nil {
		a.logger.Warn("analyzer exited, relaunching", zap.String("binary", a.manifest.Binary))
		a.client.Kill()
		a.client, a.vision = nil, nil
	}
	if a.manifest.SHA256 != "" {
		if err := checksumMatches(a.manifest.Binary, a.manifest.SHA256); err != nil {
			return nil, err
		}
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  visionrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          visionrpc.PluginMap(nil),
		Cmd:              exec.Command(a.manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logging.PluginLogger(a.logger),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start analyzer: %w", err)
	}
	raw, err := rpcClient.Dispense(visionrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense analyzer: %w", err)
	}
	typed, ok := raw.(visionrpc.VisionClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("analyzer rpc client type mismatch")
	}
	a.client, a.vision = client, typed
	a.logger.Info("analyzer started", zap.String("binary", a.manifest.Binary))
	return typed, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read analyzer binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}
