package repository

import (
	"context"

	"deploybot/internal/domain/entity"
)

// DeploymentRepository is the durable store for completed deployments.
type DeploymentRepository interface {
	Create(ctx context.Context, dep *entity.Deployment) error
	GetByID(ctx context.Context, id string) (*entity.Deployment, error)
	List(ctx context.Context) ([]*entity.Deployment, error)
	ListByStatus(ctx context.Context, status entity.DeploymentStatus) ([]*entity.Deployment, error)
	Update(ctx context.Context, dep *entity.Deployment) error
	UpdateStatus(ctx context.Context, id string, status entity.DeploymentStatus) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status entity.DeploymentStatus) (int, error)
}
