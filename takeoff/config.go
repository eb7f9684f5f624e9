// takeoff/config.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fieldlength/takeoff/aviation"
	"github.com/fieldlength/takeoff/log"
	"github.com/fieldlength/takeoff/math"
	"github.com/fieldlength/takeoff/model"
	"github.com/fieldlength/takeoff/util"

	"github.com/brunoga/deep"
)

// Spec is the JSON description of an aircraft and the conditions of a
// takeoff. Quantities are SI, angles in degrees. Use DefaultSpec as the
// starting point; LoadSpec decodes on top of it so that absent keys keep
// their defaults.
type Spec struct {
	Name string `json:"name"`

	Mass        float64 `json:"mass_kg"`
	WingArea    float64 `json:"wing_area_m2"`
	AspectRatio float64 `json:"aspect_ratio"`
	Oswald      float64 `json:"oswald"`
	WingHeight  float64 `json:"wing_height_m"`

	CD0          float64 `json:"cd0"`
	DeltaCD0Flap float64 `json:"delta_cd0_flap"`
	DeltaCD0Gear float64 `json:"delta_cd0_gear"`
	CL0          float64 `json:"cl0"`
	CLAlpha      float64 `json:"cl_alpha_per_deg"`
	CLMax        float64 `json:"cl_max"`
	Incidence    float64 `json:"incidence_deg"`
	AlphaGround  float64 `json:"alpha_ground_deg"`

	Engines            int              `json:"engines"`
	Thrust             model.ThrustSpec `json:"thrust"`
	GroundIdleThrottle model.TableSpec  `json:"ground_idle_throttle"`
	DragEngineFailure  float64          `json:"drag_engine_failure"`

	Wind            float64         `json:"wind_mps"` // positive is a headwind
	Altitude        float64         `json:"altitude_m"`
	Friction        model.TableSpec `json:"friction"`
	BrakingFriction model.TableSpec `json:"braking_friction"`
	Obstacle        float64         `json:"obstacle_m"`

	RotationRate     float64 `json:"rotation_rate_deg_s"`
	KRotation        float64 `json:"k_rotation"`
	KAlphaDot        float64 `json:"k_alpha_dot_per_deg"`
	KCLMax           float64 `json:"k_cl_max"`
	RecognitionDelay float64 `json:"recognition_delay_s"`
	HoldDuration     float64 `json:"hold_duration_s"`
}

// DefaultSpec returns a Spec with every optional quantity at its default
// and the aircraft-specific ones unset.
func DefaultSpec() Spec {
	return Spec{
		GroundIdleThrottle: model.ConstantSpec(0),
		DragEngineFailure:  0.005,
		Friction:           model.ConstantSpec(0.025),
		BrakingFriction:    model.ConstantSpec(0.3),
		Obstacle:           aviation.FeetToMeters(35),
		RotationRate:       3,
		KRotation:          1.05,
		KAlphaDot:          0.04,
		KCLMax:             0.9,
		RecognitionDelay:   3,
		HoldDuration:       0.5,
	}
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	return deep.MustCopy(s)
}

// ReadSpec decodes a JSON aircraft description on top of DefaultSpec.
// Duplicate and unknown keys are errors.
func ReadSpec(r io.Reader) (Spec, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Spec{}, err
	}
	return ParseSpec(b)
}

func ParseSpec(b []byte) (Spec, error) {
	if dups := util.FindDuplicateJSONKeys(b); len(dups) > 0 {
		var keys []string
		for _, d := range dups {
			keys = append(keys, d.String())
		}
		return Spec{}, fmt.Errorf("duplicate keys %s: %w", strings.Join(keys, ", "), ErrInvalidConfiguration)
	}

	spec := DefaultSpec()
	if err := util.UnmarshalJSONBytes(b, &spec); err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return spec, nil
}

func LoadSpec(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, err
	}
	defer f.Close()

	spec, err := ReadSpec(f)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

///////////////////////////////////////////////////////////////////////////
// Configuration

// Configuration is a validated Spec along with the quantities derived
// from it. It is never modified after NewConfiguration returns and may be
// shared by concurrent runs.
type Configuration struct {
	Spec Spec

	thrust          model.ThrustModel
	idleThrottle    *model.Table
	friction        *model.Table
	brakingFriction *model.Table

	weight, rho   float64
	vStall, vRot  float64
	kGround, span float64
}

// NewConfiguration validates the spec, reporting every problem found,
// and derives the quantities used by the simulator.
func NewConfiguration(spec Spec) (*Configuration, error) {
	var e util.ErrorLogger
	c := &Configuration{Spec: spec.Clone()}
	c.validate(&e)
	if err := e.Err(ErrInvalidConfiguration); err != nil {
		return nil, err
	}

	s := &c.Spec
	c.weight = aviation.KgToNewtons(s.Mass)
	c.rho = aviation.DensityAtAltitude(s.Altitude)
	c.vStall = aviation.StallSpeed(c.weight, c.rho, s.WingArea, s.CLMax)
	c.vRot = s.KRotation * c.vStall
	c.span = aviation.WingSpan(s.WingArea, s.AspectRatio)
	c.kGround = model.GroundEffect(s.WingHeight, c.span)
	return c, nil
}

func (c *Configuration) validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())
	s := &c.Spec

	positive := func(name string, v float64) {
		if !(v > 0) || !math.IsFinite(v) {
			e.ErrorString("%s: %g must be positive", name, v)
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || !math.IsFinite(v) {
			e.ErrorString("%s: %g must not be negative", name, v)
		}
	}
	finite := func(name string, v float64) {
		if !math.IsFinite(v) {
			e.ErrorString("%s: %g must be finite", name, v)
		}
	}

	positive("mass_kg", s.Mass)
	positive("wing_area_m2", s.WingArea)
	positive("aspect_ratio", s.AspectRatio)
	if !(s.Oswald > 0 && s.Oswald <= 1) {
		e.ErrorString("oswald: %g must be in (0, 1]", s.Oswald)
	}
	nonNegative("wing_height_m", s.WingHeight)
	nonNegative("cd0", s.CD0)
	nonNegative("delta_cd0_flap", s.DeltaCD0Flap)
	nonNegative("delta_cd0_gear", s.DeltaCD0Gear)
	finite("cl0", s.CL0)
	positive("cl_alpha_per_deg", s.CLAlpha)
	positive("cl_max", s.CLMax)
	finite("incidence_deg", s.Incidence)
	finite("alpha_ground_deg", s.AlphaGround)
	if s.Engines < 1 {
		e.ErrorString("engines: %d must be at least 1", s.Engines)
	}
	nonNegative("drag_engine_failure", s.DragEngineFailure)
	finite("wind_mps", s.Wind)
	finite("altitude_m", s.Altitude)
	if s.Altitude > aviation.TropopauseM {
		e.ErrorString("altitude_m: %g is above the tropopause", s.Altitude)
	}
	positive("obstacle_m", s.Obstacle)
	positive("rotation_rate_deg_s", s.RotationRate)
	positive("k_rotation", s.KRotation)
	nonNegative("k_alpha_dot_per_deg", s.KAlphaDot)
	if !(s.KCLMax > 0 && s.KCLMax <= 1) {
		e.ErrorString("k_cl_max: %g must be in (0, 1]", s.KCLMax)
	}
	nonNegative("recognition_delay_s", s.RecognitionDelay)
	nonNegative("hold_duration_s", s.HoldDuration)

	e.Push("thrust")
	if tm, err := s.Thrust.Build(); err != nil {
		e.Error(err)
	} else {
		c.thrust = tm
	}
	e.Pop()

	table := func(name string, ts model.TableSpec, def, lo, hi float64) *model.Table {
		e.Push(name)
		defer e.Pop()
		t, err := ts.Build(def)
		if err != nil {
			e.Error(err)
			return nil
		}
		if t.Min() < lo || t.Max() > hi {
			e.ErrorString("values must be within [%g, %g]", lo, hi)
		}
		return t
	}
	c.idleThrottle = table("ground_idle_throttle", s.GroundIdleThrottle, 0, 0, 1)
	c.friction = table("friction", s.Friction, 0.025, 0, 1)
	c.brakingFriction = table("braking_friction", s.BrakingFriction, 0.3, 0, 1)
}

func (c *Configuration) Name() string {
	if c.Spec.Name == "" {
		return "unnamed"
	}
	return c.Spec.Name
}

// Weight returns the takeoff weight in newtons.
func (c *Configuration) Weight() float64 { return c.weight }

// Density returns the ISA air density at the runway altitude.
func (c *Configuration) Density() float64 { return c.rho }

func (c *Configuration) StallSpeed() float64 { return c.vStall }

func (c *Configuration) RotationSpeed() float64 { return c.vRot }

// GroundEffect returns the factor applied to the induced drag.
func (c *Configuration) GroundEffect() float64 { return c.kGround }

func (c *Configuration) WingSpan() float64 { return c.span }

// CLGround returns the lift coefficient at the ground attitude.
func (c *Configuration) CLGround() float64 {
	return c.Spec.CL0 + c.Spec.CLAlpha*(c.Spec.AlphaGround+c.Spec.Incidence)
}

// EngineThrust returns the thrust of one engine at the given speed.
func (c *Configuration) EngineThrust(speed float64) float64 {
	return c.thrust.Thrust(speed, c.Spec.Altitude)
}

func (c *Configuration) Friction(speed float64) float64 {
	return c.friction.At(speed)
}

func (c *Configuration) BrakingFriction(speed float64) float64 {
	return c.brakingFriction.At(speed)
}

func (c *Configuration) GroundIdleThrottle(speed float64) float64 {
	return c.idleThrottle.At(speed)
}

// Log reports the derived quantities.
func (c *Configuration) Log(lg *log.Logger) {
	lg.Info("configuration", "name", c.Name(), "weight_n", c.weight, "rho", c.rho,
		"vstall", c.vStall, "vrot", c.vRot, "k_ground", c.kGround)
}
