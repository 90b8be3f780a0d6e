package mongodb

import (
	"context"
	"errors"
	"log"
	"time"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoDeploymentRepo struct {
	deploymentsCol *mongo.Collection
}

func NewMongoDeploymentRepo(db *mongo.Database) repository.DeploymentRepository {
	col := db.Collection("deployments")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "status", Value: 1}},
	})

	return &MongoDeploymentRepo{
		deploymentsCol: col,
	}
}

func (r *MongoDeploymentRepo) Create(ctx context.Context, dep *entity.Deployment) error {
	metrics.IncDBOp("put")

	dep.CreatedAt = time.Now()
	dep.UpdatedAt = time.Now()
	_, err := r.deploymentsCol.InsertOne(ctx, dep)
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "create_error")
		return err
	}
	return nil
}

func (r *MongoDeploymentRepo) GetByID(ctx context.Context, id string) (*entity.Deployment, error) {
	metrics.IncDBOp("get")

	var dep entity.Deployment
	err := r.deploymentsCol.FindOne(ctx, bson.M{"id": id}).Decode(&dep)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		metrics.IncError("mongo_deployment_repo", "get_error")
		return nil, err
	}
	return &dep, nil
}

func (r *MongoDeploymentRepo) List(ctx context.Context) ([]*entity.Deployment, error) {
	metrics.IncDBOp("list")

	cur, err := r.deploymentsCol.Find(ctx, bson.D{})
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "list_error")
		return nil, err
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			log.Printf("close cursor err: %s", err)
		}
	}()

	return decodeDeployments(ctx, cur)
}

func (r *MongoDeploymentRepo) ListByStatus(ctx context.Context, status entity.DeploymentStatus) ([]*entity.Deployment, error) {
	metrics.IncDBOp("list")

	cur, err := r.deploymentsCol.Find(ctx, bson.M{"status": status})
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "list_by_status_error")
		return nil, err
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			log.Printf("close cursor err: %s", err)
		}
	}()

	return decodeDeployments(ctx, cur)
}

func decodeDeployments(ctx context.Context, cur *mongo.Cursor) ([]*entity.Deployment, error) {
	var deployments []*entity.Deployment
	for cur.Next(ctx) {
		var d entity.Deployment
		if err := cur.Decode(&d); err != nil {
			metrics.IncError("mongo_deployment_repo", "decode_error")
			return nil, err
		}
		deployments = append(deployments, &d)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_deployment_repo", "cursor_error")
	}
	return deployments, cur.Err()
}

func (r *MongoDeploymentRepo) Update(ctx context.Context, dep *entity.Deployment) error {
	metrics.IncDBOp("put")

	dep.UpdatedAt = time.Now()
	res, err := r.deploymentsCol.ReplaceOne(ctx, bson.M{"id": dep.ID}, dep)
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "update_error")
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDeploymentRepo) UpdateStatus(ctx context.Context, id string, status entity.DeploymentStatus) error {
	metrics.IncDBOp("put")

	filter := bson.M{"id": id}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	res, err := r.deploymentsCol.UpdateOne(ctx, filter, update)
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "update_status_error")
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDeploymentRepo) Delete(ctx context.Context, id string) error {
	metrics.IncDBOp("delete")

	res, err := r.deploymentsCol.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "delete_error")
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDeploymentRepo) CountByStatus(ctx context.Context, status entity.DeploymentStatus) (int, error) {
	metrics.IncDBOp("count")

	count, err := r.deploymentsCol.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		metrics.IncError("mongo_deployment_repo", "count_by_status_error")
		return 0, err
	}
	return int(count), nil
}
