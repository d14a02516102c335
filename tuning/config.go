// Package tuning loads the designer-authored balance document that
// parameterizes fact grading, steering limits, and decision cadence.
// Defaults are embedded so the server always boots; on-disk overlays
// are merged on top for local tweaking.
package tuning

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"

	"taskbots/server/internal/rules"
	"taskbots/server/internal/taskbot"
)

//go:embed defaults.json
var defaultsJSON []byte

// Document models the JSON tuning contract. It is shared with the
// schema generator so editors can validate overlay files.
type Document struct {
	Distance DistanceDoc `json:"distance" jsonschema:"title=Distance bands,description=Contact distance thresholds used when grading near/medium/far facts.,required"`
	Fraction FractionDoc `json:"fraction" jsonschema:"title=Fraction bands,description=Contact-share thresholds used when grading low/medium/high facts.,required"`
	Radii    RadiiDoc    `json:"radii" jsonschema:"title=Arrival radii,description=Per-mandate arrival tolerances in world units.,required"`
	Speeds   SpeedsDoc   `json:"speeds" jsonschema:"title=Speed profiles,description=Per-alignment steering limits.,required"`
	Offsets  OffsetsDoc  `json:"offsets" jsonschema:"title=Anchor offsets,description=Offsets between the steering agent and the rendered body."`
	Decision DecisionDoc `json:"decision" jsonschema:"title=Decision cadence,description=How often and how far the arbiter looks.,required"`
}

// DistanceDoc holds the grading thresholds for contact distance, in
// ascending order.
type DistanceDoc struct {
	Near   float64 `json:"near" jsonschema:"minimum=0,required"`
	Medium float64 `json:"medium" jsonschema:"minimum=0,required"`
	Far    float64 `json:"far" jsonschema:"minimum=0,required"`
}

// FractionDoc holds the grading thresholds for contact share, each in
// [0,1] and ascending.
type FractionDoc struct {
	Low    float64 `json:"low" jsonschema:"minimum=0,maximum=1,required"`
	Medium float64 `json:"medium" jsonschema:"minimum=0,maximum=1,required"`
	High   float64 `json:"high" jsonschema:"minimum=0,maximum=1,required"`
}

// RadiiDoc holds the per-mandate arrival tolerances.
type RadiiDoc struct {
	Patrol float64 `json:"patrol" jsonschema:"minimum=0,required"`
	Hunt   float64 `json:"hunt" jsonschema:"minimum=0,required"`
	Return float64 `json:"return" jsonschema:"minimum=0,required"`
}

// SpeedDoc bounds one steering profile.
type SpeedDoc struct {
	MaxSpeed float64 `json:"maxSpeed" jsonschema:"minimum=0,required"`
	MaxAccel float64 `json:"maxAccel" jsonschema:"minimum=0,required"`
}

// SpeedsDoc holds the per-alignment steering profiles.
type SpeedsDoc struct {
	Good SpeedDoc `json:"good" jsonschema:"required"`
	Bad  SpeedDoc `json:"bad" jsonschema:"required"`
}

// PointDoc is a 2D offset in world units.
type PointDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OffsetsDoc anchors the steering agent and the cleansing beam
// relative to the rendered body.
type OffsetsDoc struct {
	Body PointDoc `json:"body"`
	Beam PointDoc `json:"beam"`
}

// DecisionDoc controls arbitration cadence and contact gathering.
type DecisionDoc struct {
	IntervalTicks uint64  `json:"intervalTicks" jsonschema:"minimum=1,required"`
	ContactRange  float64 `json:"contactRange" jsonschema:"minimum=0,required"`
}

// DefaultPaths returns the canonical overlay locations relative to the
// server module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "tuning.json"),
	}
}

// Default returns the embedded tuning document. The embedded defaults
// ship with the binary, so a failure here is a build defect and panics.
func Default() *Document {
	doc, err := Load()
	if err != nil {
		panic(fmt.Sprintf("tuning: embedded defaults invalid: %v", err))
	}
	return doc
}

// Load decodes the embedded defaults, then merges each overlay path on
// top in order. Missing overlay files are skipped; malformed or
// inconsistent documents fail loudly.
func Load(paths ...string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(defaultsJSON, &doc); err != nil {
		return nil, fmt.Errorf("tuning: parse embedded defaults: %w", err)
	}
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		data, err := os.ReadFile(trimmed)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("tuning: failed loading %s: %w", trimmed, err)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("tuning: failed parsing %s: %w", trimmed, err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document for internal consistency.
func (d *Document) Validate() error {
	if !(0 < d.Distance.Near && d.Distance.Near < d.Distance.Medium && d.Distance.Medium < d.Distance.Far) {
		return fmt.Errorf("tuning: distance bands must be ascending and positive, got %v/%v/%v", d.Distance.Near, d.Distance.Medium, d.Distance.Far)
	}
	if !(0 < d.Fraction.Low && d.Fraction.Low < d.Fraction.Medium && d.Fraction.Medium < d.Fraction.High && d.Fraction.High <= 1) {
		return fmt.Errorf("tuning: fraction bands must be ascending within (0,1], got %v/%v/%v", d.Fraction.Low, d.Fraction.Medium, d.Fraction.High)
	}
	if d.Radii.Patrol <= 0 || d.Radii.Hunt <= 0 || d.Radii.Return <= 0 {
		return fmt.Errorf("tuning: arrival radii must be positive, got %v/%v/%v", d.Radii.Patrol, d.Radii.Hunt, d.Radii.Return)
	}
	for _, profile := range []struct {
		name string
		doc  SpeedDoc
	}{{"good", d.Speeds.Good}, {"bad", d.Speeds.Bad}} {
		if profile.doc.MaxSpeed <= 0 || profile.doc.MaxAccel <= 0 {
			return fmt.Errorf("tuning: %s speed profile must be positive, got speed %v accel %v", profile.name, profile.doc.MaxSpeed, profile.doc.MaxAccel)
		}
	}
	if d.Decision.IntervalTicks == 0 {
		return fmt.Errorf("tuning: decision interval must be at least one tick")
	}
	if d.Decision.ContactRange < d.Distance.Far {
		return fmt.Errorf("tuning: contact range %v must cover the far distance band %v", d.Decision.ContactRange, d.Distance.Far)
	}
	return nil
}

// Bands converts the grading thresholds for the rule engine.
func (d *Document) Bands() rules.Bands {
	return rules.Bands{
		Distance: rules.DistanceBands{
			Near:   d.Distance.Near,
			Medium: d.Distance.Medium,
			Far:    d.Distance.Far,
		},
		Fraction: rules.FractionBands{
			Low:    d.Fraction.Low,
			Medium: d.Fraction.Medium,
			High:   d.Fraction.High,
		},
	}
}

// BotRadii converts the arrival tolerances for bot construction.
func (d *Document) BotRadii() taskbot.Radii {
	return taskbot.Radii{
		Patrol: d.Radii.Patrol,
		Hunt:   d.Radii.Hunt,
		Return: d.Radii.Return,
	}
}

// Profiles converts the steering limits for bot construction.
func (d *Document) Profiles() taskbot.Profiles {
	return taskbot.Profiles{
		Good: taskbot.SpeedProfile{MaxSpeed: d.Speeds.Good.MaxSpeed, MaxAccel: d.Speeds.Good.MaxAccel},
		Bad:  taskbot.SpeedProfile{MaxSpeed: d.Speeds.Bad.MaxSpeed, MaxAccel: d.Speeds.Bad.MaxAccel},
	}
}

// BodyOffset returns the agent-to-body anchor offset.
func (d *Document) BodyOffset() orb.Point {
	return orb.Point{d.Offsets.Body.X, d.Offsets.Body.Y}
}

// BeamOffset returns the cleansing-beam anchor offset.
func (d *Document) BeamOffset() orb.Point {
	return orb.Point{d.Offsets.Beam.X, d.Offsets.Beam.Y}
}
