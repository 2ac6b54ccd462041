package out_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	analysisout "studywarden/internal/modules/analysis/adapter/out"
	"studywarden/internal/modules/analysis/domain"
	"studywarden/internal/platform/clock"
)

func TestPluginAnalyzerIntegrationReferenceVision(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the reference analyzer")
	}
	binPath, checksum := buildReferenceVision(t)
	clk := clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	analyzer, err := analysisout.NewPluginAnalyzer(domain.Manifest{Name: "reference-vision", Binary: binPath, SHA256: checksum}, clk, nil)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	defer analyzer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := analyzer.Metadata(ctx)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Name != "reference-vision" {
		t.Fatalf("unexpected metadata name: %s", meta.Name)
	}
	result, err := analyzer.Analyze(ctx, domain.Frame{SessionID: "s1", Image: []byte{200, 200, 200}})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !result.Focused || !result.OnSeat || result.CostUnits != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !result.AnalyzedAt.Equal(clk.Now()) {
		t.Fatalf("expected analyzed_at from clock, got %v", result.AnalyzedAt)
	}

	// A killed process is relaunched on the next call.
	if err := analyzer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	result, err = analyzer.Analyze(ctx, domain.Frame{SessionID: "s1", Image: []byte{0, 0}})
	if err != nil {
		t.Fatalf("analyze after relaunch: %v", err)
	}
	if result.Focused {
		t.Fatalf("expected dark frame to be unfocused")
	}
}

func TestPluginAnalyzerRejectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	binPath := filepath.Join(t.TempDir(), "vision")
	if err := os.WriteFile(binPath, []byte("not a plugin"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	analyzer, err := analysisout.NewPluginAnalyzer(domain.Manifest{Binary: binPath, SHA256: sha256Hex([]byte("something else"))}, clock.SystemClock{}, nil)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	_, err = analyzer.Analyze(context.Background(), domain.Frame{SessionID: "s1", Image: []byte{1}})
	if !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestMemoryFrameBufferKeepsLatestFrameOnce(t *testing.T) {
	t.Parallel()
	buffer := analysisout.NewMemoryFrameBuffer()
	buffer.Put(domain.Frame{SessionID: "s1", Image: []byte{1}})
	buffer.Put(domain.Frame{SessionID: "s1", Image: []byte{2}})
	frame, ok := buffer.Take("s1")
	if !ok || frame.Image[0] != 2 {
		t.Fatalf("expected latest frame, got %+v ok=%v", frame, ok)
	}
	if _, ok := buffer.Take("s1"); ok {
		t.Fatalf("expected frame to be consumed")
	}
}

func buildReferenceVision(t *testing.T) (string, string) {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "reference-vision")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/reference-vision")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build reference analyzer: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built analyzer: %v", err)
	}
	return binPath, sha256Hex(payload)
}

func sha256Hex(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
