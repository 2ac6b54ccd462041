package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy is the externally supplied product configuration: tier budgets and
// cadences, stage thresholds, break rules and the daily usage window.
type Policy struct {
	Timezone     string          `yaml:"timezone"`
	DefaultTier  string          `yaml:"default_tier"`
	Tiers        map[string]Tier `yaml:"tiers"`
	Stages       []Stage         `yaml:"stages"`
	Breaks       Breaks          `yaml:"breaks"`
	AllowedHours Window          `yaml:"allowed_hours"`
	Attention    Attention       `yaml:"attention"`

	location *time.Location
}

type Tier struct {
	Label            string `yaml:"label"`
	AllowanceSeconds int64  `yaml:"allowance_seconds"`
	CadenceSeconds   int    `yaml:"cadence_seconds"`
}

// Stage is reached once a profile's score is at least MinScore. Stage 0 is
// implicit and named "initial".
type Stage struct {
	Name     string  `yaml:"name"`
	MinScore float64 `yaml:"min_score"`
}

type Breaks struct {
	VoluntarySeconds       int            `yaml:"voluntary_seconds"`
	ForcedSeconds          int            `yaml:"forced_seconds"`
	ContinuousLimitSeconds int            `yaml:"continuous_limit_seconds"`
	Caps                   map[string]int `yaml:"caps"`
}

// Window is a daily [Start, End) range in HH:MM. Start after End wraps past
// midnight; Start equal to End allows the whole day.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type Attention struct {
	NudgeAfter int `yaml:"nudge_after"`
}

const InitialStage = "initial"

func DefaultPolicy() Policy {
	p := Policy{
		Timezone:    "UTC",
		DefaultTier: "free",
		Tiers: map[string]Tier{
			"free":     {Label: "Free", AllowanceSeconds: 3600, CadenceSeconds: 60},
			"standard": {Label: "Standard", AllowanceSeconds: 2 * 3600, CadenceSeconds: 30},
			"premium":  {Label: "Premium", AllowanceSeconds: 4 * 3600, CadenceSeconds: 15},
		},
		Stages: []Stage{
			{Name: "sprout", MinScore: 10},
			{Name: "sapling", MinScore: 50},
			{Name: "tree", MinScore: 200},
			{Name: "forest", MinScore: 1000},
		},
		Breaks: Breaks{
			VoluntarySeconds:       300,
			ForcedSeconds:          600,
			ContinuousLimitSeconds: 45 * 60,
			Caps:                   map[string]int{"stretch": 3, "hydration": 3, "restroom": 4},
		},
		AllowedHours: Window{Start: "07:00", End: "21:00"},
		Attention:    Attention{NudgeAfter: 3},
	}
	p.location = time.UTC
	return p
}

// ParsePolicy decodes YAML over the defaults and validates the result. The
// tiers and breaks.caps maps replace the defaults as a whole when present.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if len(bytes.TrimSpace(data)) > 0 {
		// yaml.v3 merges into existing maps, so they start empty.
		p.Tiers, p.Breaks.Caps = nil, nil
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return Policy{}, fmt.Errorf("decode policy: %w", err)
		}
		defaults := DefaultPolicy()
		if p.Tiers == nil {
			p.Tiers = defaults.Tiers
		}
		if p.Breaks.Caps == nil {
			p.Breaks.Caps = defaults.Breaks.Caps
		}
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicy reads path; a missing file yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(data)
}

func (p *Policy) Validate() error {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("policy timezone %q: %w", p.Timezone, err)
	}
	p.location = loc
	if len(p.Tiers) == 0 {
		return fmt.Errorf("policy must define at least one tier")
	}
	for name, tier := range p.Tiers {
		if tier.AllowanceSeconds < 0 {
			return fmt.Errorf("tier %s: allowance must be non-negative", name)
		}
		if tier.CadenceSeconds <= 0 {
			return fmt.Errorf("tier %s: cadence must be positive", name)
		}
	}
	if _, ok := p.Tiers[p.DefaultTier]; !ok {
		return fmt.Errorf("default tier %q is not defined", p.DefaultTier)
	}
	last := 0.0
	for i, stage := range p.Stages {
		if strings.TrimSpace(stage.Name) == "" {
			return fmt.Errorf("stage %d: name is required", i+1)
		}
		if stage.MinScore <= last {
			return fmt.Errorf("stage %s: thresholds must be positive and strictly ascending", stage.Name)
		}
		last = stage.MinScore
	}
	if p.Breaks.VoluntarySeconds <= 0 || p.Breaks.ForcedSeconds <= 0 {
		return fmt.Errorf("break durations must be positive")
	}
	if p.Breaks.ContinuousLimitSeconds < 0 {
		return fmt.Errorf("continuous limit must be non-negative")
	}
	for kind, limit := range p.Breaks.Caps {
		if limit < 0 {
			return fmt.Errorf("break cap %s must be non-negative", kind)
		}
	}
	if _, err := parseClock(p.AllowedHours.Start); err != nil {
		return fmt.Errorf("allowed_hours.start: %w", err)
	}
	if _, err := parseClock(p.AllowedHours.End); err != nil {
		return fmt.Errorf("allowed_hours.end: %w", err)
	}
	if p.Attention.NudgeAfter < 0 {
		return fmt.Errorf("attention.nudge_after must be non-negative")
	}
	return nil
}

func (p Policy) Location() *time.Location {
	if p.location == nil {
		return time.UTC
	}
	return p.location
}

// Day is the ledger key for t in the policy time zone.
func (p Policy) Day(t time.Time) string {
	return t.In(p.Location()).Format("2006-01-02")
}

// Allowed reports whether t falls inside the daily usage window.
func (p Policy) Allowed(t time.Time) bool {
	start, errStart := parseClock(p.AllowedHours.Start)
	end, errEnd := parseClock(p.AllowedHours.End)
	if errStart != nil || errEnd != nil || start == end {
		return true
	}
	local := t.In(p.Location())
	minute := local.Hour()*60 + local.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// Tier resolves name, falling back to the default tier for unknown names.
func (p Policy) Tier(name string) Tier {
	if tier, ok := p.Tiers[name]; ok {
		return tier
	}
	return p.Tiers[p.DefaultTier]
}

func (p Policy) Cadence(tier string) time.Duration {
	return time.Duration(p.Tier(tier).CadenceSeconds) * time.Second
}

func (p Policy) BreakCap(kind string) (int, bool) {
	limit, ok := p.Breaks.Caps[kind]
	return limit, ok
}

// ChangedSections names the top-level sections that differ between p and next.
func (p Policy) ChangedSections(next Policy) []string {
	changed := []string{}
	if !reflect.DeepEqual(p.Tiers, next.Tiers) || p.DefaultTier != next.DefaultTier {
		changed = append(changed, "tiers")
	}
	if !reflect.DeepEqual(p.Stages, next.Stages) {
		changed = append(changed, "stages")
	}
	if !reflect.DeepEqual(p.Breaks, next.Breaks) {
		changed = append(changed, "breaks")
	}
	if p.AllowedHours != next.AllowedHours || p.Timezone != next.Timezone {
		changed = append(changed, "allowed_hours")
	}
	if p.Attention != next.Attention {
		changed = append(changed, "attention")
	}
	sort.Strings(changed)
	return changed
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}
