package dto

import "unicode/utf8"

type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type ChatContext struct {
	Page string `json:"page,omitempty" validate:"omitempty,oneof=landing demo"`
}

type ChatRequest struct {
	Messages []ChatTurn   `json:"messages" validate:"required,min=1,max=30,dive"`
	Context  *ChatContext `json:"context,omitempty"`
}

func (c ChatRequest) Validate() error {
	return GetValidator().Struct(c)
}

// TotalChars is the conversation character budget input, system prompt
// excluded. Characters, not bytes: multi-byte text gets the same allowance
// as ASCII.
func (c ChatRequest) TotalChars() int {
	total := 0
	for _, turn := range c.Messages {
		total += utf8.RuneCountInString(turn.Content)
	}
	return total
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
