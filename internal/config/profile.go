package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// GridProfile is the on-disk form of a grid definition.
//
//	nx: 1440
//	ny: 720
//	dz: 25
//	max_depth: 700000
//	out_of_range: clamp
type GridProfile struct {
	NX         int64   `yaml:"nx" validate:"gt=0"`
	NY         int64   `yaml:"ny" validate:"gt=0"`
	DZ         float64 `yaml:"dz" validate:"gt=0"`
	MaxDepth   float64 `yaml:"max_depth" validate:"gte=0"`
	OutOfRange string  `yaml:"out_of_range" validate:"omitempty,oneof=reject clamp"`
}

// LoadGridProfile reads and validates a YAML grid profile.
func LoadGridProfile(path string) (domain.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Grid{}, err
	}
	return ParseGridProfile(data)
}

// ParseGridProfile decodes a YAML grid profile and converts it to a Grid.
func ParseGridProfile(data []byte) (domain.Grid, error) {
	var p GridProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domain.Grid{}, fmt.Errorf("decode grid profile: %w", err)
	}
	if err := validator.New().Struct(p); err != nil {
		return domain.Grid{}, fmt.Errorf("validate grid profile: %w", err)
	}
	policy, err := domain.ParseRangePolicy(p.OutOfRange)
	if err != nil {
		return domain.Grid{}, err
	}
	g := domain.Grid{NX: p.NX, NY: p.NY, DZ: p.DZ, MaxDepth: p.MaxDepth, Policy: policy}
	return g, g.Validate()
}
