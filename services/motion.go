package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/model"
	"github.com/starks-ai/motion_api/shared"
)

// MotionService turns a style/action description into a validated motion
// spec. Generation uses a single model with tight sampling; an output that
// fails to parse or validate earns exactly one retry with a sterner prompt.
type MotionService struct {
	appContext.DefaultService

	geminiSvc    *GeminiService
	workspaceSvc *WorkspaceService
}

const MOTION_SVC = "motion_svc"

const motionModel = "gemini-1.5-flash"

func (svc MotionService) Id() string {
	return MOTION_SVC
}

func (svc *MotionService) Start() error {
	svc.geminiSvc = svc.Service(GEMINI_SVC).(*GeminiService)
	svc.workspaceSvc = svc.Service(WORKSPACE_SVC).(*WorkspaceService)
	return nil
}

// Generate produces a validated spec plus its derived summary. The response
// carries a fresh request id so callers can discard superseded responses.
func (svc *MotionService) Generate(ctx context.Context, req dto.MotionSpecRequest) (*dto.MotionSpecResponse, error) {
	started := time.Now()
	prompt := buildMotionPrompt(req)

	spec, err := svc.generateSpec(ctx, prompt)
	if err != nil {
		return nil, shared.NewUpstreamError(err, err.Error())
	}

	summary := buildMotionSummary(spec)

	// Generation history and analytics are best-effort; a storage hiccup
	// must not fail a successful generation.
	if svc.workspaceSvc != nil {
		if _, err := svc.workspaceSvc.PushRecentGeneration(summary, req.StyleText, req.ActionText, spec); err != nil {
			log.WithError(err).Warn("Failed to record recent generation")
		}
		if err := svc.workspaceSvc.RecordGenerationAnalytics(int(time.Since(started).Milliseconds())); err != nil {
			log.WithError(err).Warn("Failed to record generation analytics")
		}
	}

	return &dto.MotionSpecResponse{
		RequestID:  uuid.NewString(),
		Summary:    summary,
		MotionSpec: spec,
	}, nil
}

// generateSpec is the bounded two-attempt procedure: attempt, and on a parse
// or validation failure retry once with an appended strict-JSON directive.
// There is no third attempt.
func (svc *MotionService) generateSpec(ctx context.Context, prompt string) (*model.MotionSpec, error) {
	first, err := svc.requestSpec(ctx, prompt)
	if err == nil {
		return first, nil
	}

	if _, isUpstream := err.(*upstreamError); isUpstream {
		return nil, err
	}

	log.WithError(err).Info("First generation attempt returned invalid JSON, retrying once")

	second, err := svc.requestSpec(ctx, prompt+"\nReturn valid JSON only.")
	if err == nil {
		return second, nil
	}
	if _, isUpstream := err.(*upstreamError); isUpstream {
		return nil, err
	}
	return nil, fmt.Errorf("Gemini returned invalid JSON shape.")
}

func (svc *MotionService) requestSpec(ctx context.Context, prompt string) (*model.MotionSpec, error) {
	payload, err := svc.geminiSvc.GenerateContent(ctx, motionModel, &GeminiRequest{
		Contents: []GeminiContent{{
			Role:  shared.RoleUser,
			Parts: []GeminiPart{{Text: prompt}},
		}},
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:      0.2,
			TopP:             0.8,
			TopK:             20,
			MaxOutputTokens:  500,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, err
	}

	raw := cleanJSONString(svc.geminiSvc.ExtractText(payload))
	return model.DecodeMotionSpec(raw)
}

var (
	openFence  = regexp.MustCompile("(?i)^```(?:json)?")
	closeFence = regexp.MustCompile("```$")
)

func cleanJSONString(value string) string {
	value = openFence.ReplaceAllString(strings.TrimSpace(value), "")
	value = closeFence.ReplaceAllString(value, "")
	return strings.TrimSpace(value)
}

func buildMotionPrompt(input dto.MotionSpecRequest) string {
	return fmt.Sprintf(`You are a motion generation specification engine.
Return STRICT JSON only.
Do not include markdown, explanations, comments, or code fences.

Required schema (must match exactly):
{
  "style_tags": [],
  "action_tags": [],
  "tempo_bpm": number,
  "constraints": { "no_foot_sliding": true, "contact_points": ["feet"], "limp_left_leg": false },
  "rig_notes": [],
  "engine": "unity|unreal|blender",
  "export": { "formats": ["FBX","BVH"], "retargeting": "humanoid" },
  "quality_checks": ["no_foot_sliding","clean_contacts","stable_timing"]
}

Input:
- style text: %q
- action text: %q
- engine: %q
- rig type: %q
- toggles.no_foot_sliding: %t
- toggles.contact_constraints: %t
- toggles.limp_left_leg: %t

Rules:
- Keep style_tags and action_tags concise lower_snake_case tags.
- tempo_bpm should be plausible for the action.
- constraints.contact_points should include feet when contact constraints are on, otherwise can be [].
- engine must exactly match the input engine.
- export.formats must include both "FBX" and "BVH".
- export.retargeting must be "humanoid".
- quality_checks should include no_foot_sliding, clean_contacts, stable_timing.
`,
		input.StyleText,
		input.ActionText,
		input.Engine,
		input.RigType,
		input.Toggles.NoFootSliding,
		input.Toggles.ContactConstraints,
		input.Toggles.LimpLeftLeg,
	)
}

// buildMotionSummary is pure string templating over the validated spec; the
// same spec always yields the same sentence.
func buildMotionSummary(spec *model.MotionSpec) string {
	style := strings.Join(firstN(spec.StyleTags, 3), ", ")
	if style == "" {
		style = "custom style"
	}

	action := strings.Join(firstN(spec.ActionTags, 3), ", ")
	if action == "" {
		action = "custom action"
	}

	points := "none"
	if len(spec.Constraints.ContactPoints) > 0 {
		points = strings.Join(spec.Constraints.ContactPoints, ", ")
	}

	tempo := *spec.TempoBPM
	return fmt.Sprintf("Motion spec ready: %s in %s at %s BPM, constraints on %s, export FBX/BVH for %s.",
		action, style, formatTempo(tempo), points, spec.Engine)
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// formatTempo renders tempos the way Number.prototype.toString does:
// whole values without a decimal point, fractional values at their
// shortest exact representation.
func formatTempo(tempo float64) string {
	return strconv.FormatFloat(tempo, 'f', -1, 64)
}
