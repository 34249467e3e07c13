package model

import "time"

// GenerationMetadata annotates a generation record. Arbitrary extra keys are
// preserved alongside the well-known ones.
type GenerationMetadata map[string]any

// Type returns the module type recorded in the metadata, if any.
func (m GenerationMetadata) Type() string {
	s, _ := m["type"].(string)
	return s
}

// IsFinal reports whether the record was marked final.
func (m GenerationMetadata) IsFinal() bool {
	b, _ := m["is_final"].(bool)
	return b
}

// Generation is one append-only entry of generation history. Records are
// never updated in place; the latest per (strategy, type) is the newest by
// CreatedAt.
type Generation struct {
	ID         string             `json:"id"`
	StrategyID string             `json:"strategy_id"`
	AgentID    string             `json:"agent_id,omitempty"`
	Content    string             `json:"content"`
	Metadata   GenerationMetadata `json:"metadata"`
	CreatedAt  time.Time          `json:"created_at"`
}
