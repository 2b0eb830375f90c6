package repository

import (
	"context"

	mongoInfra "github.com/RishiKendai/shingle/internal/infra/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(client *mongoInfra.Client) *MongoRepository {
	return &MongoRepository{
		db: client.Database,
	}
}

// UpsertOne replaces the document matching filter, inserting it if absent.
func (r *MongoRepository) UpsertOne(ctx context.Context, collection string, filter interface{}, document interface{}) error {
	_, err := r.db.Collection(collection).ReplaceOne(ctx, filter, document, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRepository) FindOne(ctx context.Context, collection string, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	return r.db.Collection(collection).FindOne(ctx, filter, opts...)
}

func (r *MongoRepository) FindMany(ctx context.Context, collection string, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return r.db.Collection(collection).Find(ctx, filter, opts...)
}

func (r *MongoRepository) EnsureIndex(ctx context.Context, collection string, model mongo.IndexModel) error {
	_, err := r.db.Collection(collection).Indexes().CreateOne(ctx, model)
	return err
}
