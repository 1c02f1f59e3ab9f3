package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSpecJSON = `{
  "style_tags": ["heroic", "grounded"],
  "action_tags": ["sword_slash"],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": ["feet"], "limp_left_leg": false },
  "rig_notes": ["keep hips stable"],
  "engine": "unreal",
  "export": { "formats": ["FBX", "BVH"], "retargeting": "humanoid" },
  "quality_checks": ["no_foot_sliding", "clean_contacts", "stable_timing"]
}`

func TestDecodeMotionSpecValid(t *testing.T) {
	spec, err := DecodeMotionSpec(validSpecJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"heroic", "grounded"}, spec.StyleTags)
	require.NotNil(t, spec.TempoBPM)
	assert.Equal(t, 120.0, *spec.TempoBPM)
	require.NotNil(t, spec.Constraints.NoFootSliding)
	assert.True(t, *spec.Constraints.NoFootSliding)
	assert.Equal(t, "unreal", spec.Engine)
	assert.Equal(t, []string{"FBX", "BVH"}, spec.Export.Formats)
	assert.Equal(t, "humanoid", spec.Export.Retargeting)
}

func TestDecodeMotionSpecRejectsUnknownField(t *testing.T) {
	raw := `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"],
  "confidence_score": 90
}`

	_, err := DecodeMotionSpec(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse motion spec")
}

func TestDecodeMotionSpecRejectsNestedUnknownField(t *testing.T) {
	raw := `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false, "extra": 1 },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`

	_, err := DecodeMotionSpec(raw)
	require.Error(t, err)
}

func TestDecodeMotionSpecRejectsMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing tempo",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing engine",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing constraint flag",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing style tags",
			raw: `{
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing action tags",
			raw: `{
  "style_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing rig notes",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "missing contact points",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "null style tags",
			raw: `{
  "style_tags": null,
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`,
		},
		{
			name: "empty quality checks",
			raw: `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": []
}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMotionSpec(tc.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate motion spec")
		})
	}
}

func TestDecodeMotionSpecAcceptsEmptyArrays(t *testing.T) {
	// Present-but-empty array keys are legal everywhere except
	// quality_checks; only a missing key fails.
	raw := `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`

	spec, err := DecodeMotionSpec(raw)
	require.NoError(t, err)
	assert.NotNil(t, spec.StyleTags)
	assert.Empty(t, spec.StyleTags)
	assert.NotNil(t, spec.Constraints.ContactPoints)
}

func TestDecodeMotionSpecRangeViolations(t *testing.T) {
	tests := []struct {
		name  string
		tempo string
	}{
		{"tempo below floor", "30"},
		{"tempo above ceiling", "300"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": ` + tc.tempo + `,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`
			_, err := DecodeMotionSpec(raw)
			require.Error(t, err)
		})
	}
}

func TestDecodeMotionSpecRejectsBadEnumValues(t *testing.T) {
	raw := `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "maya",
  "export": { "formats": ["FBX"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`
	_, err := DecodeMotionSpec(raw)
	require.Error(t, err)

	raw = `{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": 120,
  "constraints": { "no_foot_sliding": true, "contact_points": [], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity",
  "export": { "formats": ["GLTF"], "retargeting": "humanoid" },
  "quality_checks": ["clean_contacts"]
}`
	_, err = DecodeMotionSpec(raw)
	require.Error(t, err)
}

func TestDecodeMotionSpecRejectsNonJSON(t *testing.T) {
	_, err := DecodeMotionSpec("Sure! Here is your motion spec:")
	require.Error(t, err)
}
