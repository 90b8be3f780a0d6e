package usecase

import (
	"context"
	"errors"
	"fmt"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/manifest"
)

var ErrConversationIncomplete = errors.New("conversation has unanswered questions")

type DeploymentUsecase interface {
	CreateFromConversation(ctx context.Context, conversationID string) (*entity.Deployment, error)
	GetDeployment(ctx context.Context, id string) (*entity.Deployment, error)
	ListDeployments(ctx context.Context) ([]*entity.Deployment, error)
	SubmitDeployment(ctx context.Context, id string) (*entity.Deployment, error)
	DeleteDeployment(ctx context.Context, id string) error
}

var _ DeploymentUsecase = (*DeploymentService)(nil)

// DeploymentService promotes completed conversations into durable deployment
// records and pushes their manifests to the marketplace.
type DeploymentService struct {
	deployments   repository.DeploymentRepository
	conversations repository.ConversationRepository
	marketplace   repository.MarketplaceClient
}

func NewDeploymentService(
	dr repository.DeploymentRepository,
	cr repository.ConversationRepository,
	mc repository.MarketplaceClient,
) *DeploymentService {
	return &DeploymentService{
		deployments:   dr,
		conversations: cr,
		marketplace:   mc,
	}
}

func (s *DeploymentService) CreateFromConversation(ctx context.Context, conversationID string) (*entity.Deployment, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", conversationID, err)
	}
	if !conv.Complete {
		return nil, ErrConversationIncomplete
	}

	doc, err := manifest.Render(conv.Params)
	if err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}

	dep := entity.NewDeployment(conv.ID, conv.Params, doc)
	if err := s.deployments.Create(ctx, dep); err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}
	return dep, nil
}

func (s *DeploymentService) GetDeployment(ctx context.Context, id string) (*entity.Deployment, error) {
	return s.deployments.GetByID(ctx, id)
}

func (s *DeploymentService) ListDeployments(ctx context.Context) ([]*entity.Deployment, error) {
	return s.deployments.List(ctx)
}

func (s *DeploymentService) SubmitDeployment(ctx context.Context, id string) (*entity.Deployment, error) {
	dep, err := s.deployments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", id, err)
	}
	if !dep.IsSubmittable() {
		return nil, fmt.Errorf("deployment %s is %s and cannot be submitted", id, dep.Status)
	}

	receipt, err := s.marketplace.SubmitManifest(ctx, dep.Manifest)
	if err != nil {
		_ = s.deployments.UpdateStatus(ctx, id, entity.DeploymentStatusFailed)
		return nil, fmt.Errorf("submit manifest: %w", err)
	}

	dep.Status = entity.DeploymentStatusSubmitted
	dep.LeaseID = receipt.LeaseID
	if err := s.deployments.Update(ctx, dep); err != nil {
		return nil, fmt.Errorf("update deployment %s: %w", id, err)
	}
	return dep, nil
}

func (s *DeploymentService) DeleteDeployment(ctx context.Context, id string) error {
	if err := s.deployments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deployment %s: %w", id, err)
	}
	return nil
}
