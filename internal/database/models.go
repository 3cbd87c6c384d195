package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/adapter"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/validator"
)

// AdaptationRecord is the audit trail entry written for each adapted request.
// It captures the routing decision, the shape of the payload and every
// degradation that occurred, without retaining message content.
type AdaptationRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AdaptationID string             `bson:"adaptation_id" json:"adaptation_id"`
	RequestID    string             `bson:"request_id" json:"request_id"`

	// Routing details
	Backend       string `bson:"backend" json:"backend"`
	SourceDialect string `bson:"source_dialect" json:"source_dialect"`
	TargetDialect string `bson:"target_dialect" json:"target_dialect"`
	Model         string `bson:"model,omitempty" json:"model,omitempty"`

	// Payload shape
	Summary validator.PayloadSummary `bson:"summary" json:"summary"`

	// Lossy conversion steps, if any
	Degradations []adapter.Degradation `bson:"degradations,omitempty" json:"degradations,omitempty"`

	// Outcome
	Forwarded  bool   `bson:"forwarded" json:"forwarded"`
	StatusCode int    `bson:"status_code,omitempty" json:"status_code,omitempty"`
	DurationMs int64  `bson:"duration_ms" json:"duration_ms"`
	ErrorType  string `bson:"error_type,omitempty" json:"error_type,omitempty"`
	ErrorMsg   string `bson:"error_message,omitempty" json:"error_message,omitempty"`

	// Metadata
	Environment string `bson:"environment" json:"environment"`
	Version     string `bson:"version,omitempty" json:"version,omitempty"`

	// Timestamps
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
