package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrNoFrame          = errors.New("no frame available")
	ErrChecksumMismatch = errors.New("analyzer checksum mismatch")
	ErrAnalyzerTimeout  = errors.New("analyzer timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Frame is one camera image pushed by the client for the next analysis tick.
type Frame struct {
	SessionID  string
	Image      []byte
	CapturedAt time.Time
}

// Result is the vision collaborator's verdict on one frame.
type Result struct {
	Focused    bool
	OnSeat     bool
	CostUnits  float64
	AnalyzedAt time.Time
}

func (r Result) Validate() error {
	if r.CostUnits < 0 {
		return fmt.Errorf("cost units must be non-negative")
	}
	return nil
}

// Manifest describes the external analyzer binary. SHA256 is optional; when
// set, the binary is verified before launch.
type Manifest struct {
	Name   string
	Binary string
	SHA256 string
}

func (m Manifest) Validate() error {
	if m.Binary == "" {
		return fmt.Errorf("analyzer binary path is required")
	}
	if m.SHA256 != "" && !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("analyzer sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Metadata struct {
	Name    string
	Version string
	Model   string
}
