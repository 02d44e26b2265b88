package core

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a role-tagged chat message sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory tiers assigned at save time.
const (
	TierActive  = "active"
	TierArchive = "archive"
)

// FactMetadata is the structured metadata stored alongside a fact. Topics
// come from the extraction expert, entities from the named-entity model.
type FactMetadata struct {
	Topics   []string `json:"topics,omitempty"`
	Entities []string `json:"entities,omitempty"`
	Tier     string   `json:"tier,omitempty"`
}

// MemoryRecord is a durable user fact. The integer id is shared between the
// relational store and the similarity index; a record is expected to exist in
// both under the same id with identical content.
type MemoryRecord struct {
	ID        int64
	Content   string
	Metadata  FactMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RankedCandidate is one fused retrieval result. Never persisted.
type RankedCandidate struct {
	ID      int64
	Content string
	Score   float64
}

// ScoredPoint is a raw hit from one retrieval path before fusion.
type ScoredPoint struct {
	ID      int64
	Content string
	Score   float64
}

// Intent labels produced by the question/statement micromodel.
type Intent string

const (
	IntentQuestion  Intent = "Question"
	IntentStatement Intent = "Statement"
	IntentUnknown   Intent = "Unknown"
)

// Confirmation labels produced by the affirm/deny micromodel.
type Confirmation string

const (
	ConfirmAffirm  Confirmation = "Affirm"
	ConfirmDeny    Confirmation = "Deny"
	ConfirmUnknown Confirmation = "Unknown"
)
