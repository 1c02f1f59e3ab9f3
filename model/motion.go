package model

import (
	"fmt"

	"github.com/bytedance/sonic/decoder"
	"github.com/go-playground/validator/v10"
)

var specValidate = validator.New()

// MotionSpec is the canonical generation artifact. It is only ever produced
// by DecodeMotionSpec, which enforces the full structural contract; once
// validated it is replaced wholesale, never mutated.
//
// Scalar fields whose zero value is meaningful are pointers so a missing key
// fails validation instead of silently defaulting. The array keys carry
// required, which for slices means non-nil: a missing or null key decodes to
// a nil slice and fails, an explicit [] decodes non-nil and passes.
type MotionSpec struct {
	StyleTags     []string          `json:"style_tags" validate:"required,max=12,dive,min=1,max=48"`
	ActionTags    []string          `json:"action_tags" validate:"required,max=12,dive,min=1,max=48"`
	TempoBPM      *float64          `json:"tempo_bpm" validate:"required,min=40,max=220"`
	Constraints   MotionConstraints `json:"constraints"`
	RigNotes      []string          `json:"rig_notes" validate:"required,max=8,dive,min=1,max=120"`
	Engine        string            `json:"engine" validate:"required,oneof=unity unreal blender"`
	Export        MotionExport      `json:"export"`
	QualityChecks []string          `json:"quality_checks" validate:"min=1,max=8,dive,min=1,max=48"`
}

type MotionConstraints struct {
	NoFootSliding *bool    `json:"no_foot_sliding" validate:"required"`
	ContactPoints []string `json:"contact_points" validate:"required,max=8,dive,min=1,max=24"`
	LimpLeftLeg   *bool    `json:"limp_left_leg" validate:"required"`
}

type MotionExport struct {
	Formats     []string `json:"formats" validate:"required,min=1,dive,oneof=FBX BVH"`
	Retargeting string   `json:"retargeting" validate:"required,eq=humanoid"`
}

// Validate checks field constraints only. Unknown-key rejection happens at
// decode time; use DecodeMotionSpec for untrusted input.
func (m *MotionSpec) Validate() error {
	if m == nil {
		return fmt.Errorf("motion spec is nil")
	}
	return specValidate.Struct(m)
}

// DecodeMotionSpec parses candidate JSON into a MotionSpec. Keys outside the
// declared schema fail the decode at every nesting level.
func DecodeMotionSpec(raw string) (*MotionSpec, error) {
	var spec MotionSpec

	dec := decoder.NewDecoder(raw)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse motion spec: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("validate motion spec: %w", err)
	}

	return &spec, nil
}
