package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidParams indicates simulation parameters outside their domain.
var ErrInvalidParams = errors.New("core: invalid simulation parameters")

// Params fixes the Hamiltonian and heat bath for one parameter point.
// Temperature is absolute (k_B = 1), never inverse temperature.
type Params struct {
	Temperature float64
	// Anisotropy scales the nearest-neighbour coupling: +1 ferromagnetic,
	// -1 antiferromagnetic.
	Anisotropy float64
	Field      float64
}

// DefaultParams returns a ferromagnet without field just below the 2D
// critical temperature.
func DefaultParams() Params {
	return Params{Temperature: 2.0, Anisotropy: 1, Field: 0}
}

// Validate reports whether the parameters can drive a Metropolis chain.
func (p Params) Validate() error {
	if math.IsNaN(p.Temperature) || math.IsInf(p.Temperature, 0) || p.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be positive and finite, got %v", ErrInvalidParams, p.Temperature)
	}
	if math.IsNaN(p.Anisotropy) || math.IsInf(p.Anisotropy, 0) {
		return fmt.Errorf("%w: anisotropy must be finite, got %v", ErrInvalidParams, p.Anisotropy)
	}
	if math.IsNaN(p.Field) || math.IsInf(p.Field, 0) {
		return fmt.Errorf("%w: field must be finite, got %v", ErrInvalidParams, p.Field)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("T=%g B=%g eps=%g", p.Temperature, p.Field, p.Anisotropy)
}

// Group returns the parameters as a presentation group.
func (p Params) Group() ParameterGroup {
	return ParameterGroup{
		Name: "Hamiltonian",
		Params: []Parameter{
			FloatParam(KeyTemperature, "Temperature", p.Temperature),
			FloatParam(KeyField, "Field", p.Field),
			FloatParam(KeyAnisotropy, "Coupling", p.Anisotropy),
		},
	}
}

// Keys used for the Hamiltonian parameters in snapshots and overrides.
const (
	KeyTemperature = "temperature"
	KeyField       = "field"
	KeyAnisotropy  = "anisotropy"
)

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	// ParamTypeInt denotes integer-valued parameters.
	ParamTypeInt ParamType = "int"
	// ParamTypeFloat denotes floating-point parameters.
	ParamTypeFloat ParamType = "float"
)

// Parameter describes a single tunable value exposed by a chain.
type Parameter struct {
	Key   string
	Label string
	Type  ParamType
	Value string
}

// ParameterGroup clusters related parameters for presentation purposes.
type ParameterGroup struct {
	Name   string
	Params []Parameter
}

// ParameterSnapshot captures the current set of tunables.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Lookup finds a parameter by key across all groups.
func (s ParameterSnapshot) Lookup(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// ParameterControl describes an adjustable parameter that should be exposed on
// the HUD. Steps and bounds are optional and interpreted based on the
// parameter type.
type ParameterControl struct {
	Key   string
	Label string
	Type  ParamType

	Step float64

	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// ParameterControlsProvider exposes the list of HUD-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter allows HUD interactions to update integer parameters.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// FloatParameterSetter allows HUD interactions to update floating point
// parameters.
type FloatParameterSetter interface {
	SetFloatParameter(key string, value float64) bool
}

// IntParam builds an integer Parameter.
func IntParam(key, label string, value int) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeInt, Value: strconv.Itoa(value)}
}

// FloatParam builds a floating point Parameter.
func FloatParam(key, label string, value float64) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeFloat, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}
