package dto

type SpeechRequest struct {
	Text  string `json:"text" validate:"required,min=1,max=1000"`
	Voice string `json:"voice,omitempty" validate:"omitempty,oneof=Kore Puck Aoede Charon"`
	Style string `json:"style,omitempty" validate:"omitempty,min=1,max=80"`
}

func (s SpeechRequest) Validate() error {
	return GetValidator().Struct(s)
}

type SpeechResponse struct {
	AudioBase64 string `json:"audioBase64"`
	MimeType    string `json:"mimeType"`
}
