package dto

import "github.com/starks-ai/motion_api/model"

type MotionToggles struct {
	NoFootSliding      bool `json:"noFootSliding"`
	ContactConstraints bool `json:"contactConstraints"`
	LimpLeftLeg        bool `json:"limpLeftLeg"`
}

type MotionSpecRequest struct {
	StyleText  string        `json:"styleText" validate:"required,min=3,max=220"`
	ActionText string        `json:"actionText" validate:"required,min=3,max=220"`
	Engine     string        `json:"engine" validate:"required,oneof=unity unreal blender"`
	RigType    string        `json:"rigType" validate:"required,eq=humanoid"`
	Toggles    MotionToggles `json:"toggles"`
}

func (m MotionSpecRequest) Validate() error {
	return GetValidator().Struct(m)
}

type MotionSpecResponse struct {
	// RequestID lets callers discard responses superseded by a newer
	// generate request.
	RequestID  string            `json:"requestId"`
	Summary    string            `json:"summary"`
	MotionSpec *model.MotionSpec `json:"motionSpec"`
}
