package entity

import (
	"time"

	"github.com/google/uuid"
)

type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusSubmitted DeploymentStatus = "submitted"
	DeploymentStatusActive    DeploymentStatus = "active"
	DeploymentStatusFailed    DeploymentStatus = "failed"
	DeploymentStatusClosed    DeploymentStatus = "closed"
)

// Deployment is the durable record of a completed generation: the final
// parameter set and the rendered manifest, plus its marketplace lifecycle.
type Deployment struct {
	ID             string           `json:"id" bson:"id"`
	ConversationID string           `json:"conversation_id" bson:"conversation_id"`
	Params         ParameterSet     `json:"params" bson:"params"`
	Manifest       string           `json:"manifest" bson:"manifest"`
	Status         DeploymentStatus `json:"status" bson:"status"`
	LeaseID        string           `json:"lease_id,omitempty" bson:"lease_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updated_at"`
}

func NewDeployment(conversationID string, params ParameterSet, manifest string) *Deployment {
	now := time.Now()
	return &Deployment{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Params:         params,
		Manifest:       manifest,
		Status:         DeploymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (d *Deployment) IsSubmittable() bool {
	return d.Status == DeploymentStatusPending || d.Status == DeploymentStatusFailed
}
