package model

import "time"

// Prompt template sources.
const (
	PromptSourceDatabase = "database"
	PromptSourceDefault  = "default"
)

// PromptTemplate is a stored or default system/user prompt pair for one
// generation module. Keyed uniquely by module name.
type PromptTemplate struct {
	Module       string    `json:"module"`
	SystemPrompt string    `json:"system_prompt"`
	UserPrompt   string    `json:"user_prompt"`
	Source       string    `json:"source"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
