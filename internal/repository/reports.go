package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/shingle/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "comparison_reports"

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the createdAt index used by ListRecent.
func (r *ReportsRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.EnsureIndex(ctx, reportsCollection, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create reports index: %w", err)
	}
	return nil
}

// SaveReport writes the report under its ID, replacing any earlier copy, so
// a redelivered job stores the same report again without error.
func (r *ReportsRepository) SaveReport(ctx context.Context, report *models.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	err := r.mongoRepo.UpsertOne(ctx, reportsCollection, bson.M{"_id": report.ID}, report)
	// Two concurrent upserts of one ID can race to insert.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

func (r *ReportsRepository) GetReport(ctx context.Context, id string) (*models.Report, error) {
	filter := bson.M{"_id": id}

	var report models.Report
	err := r.mongoRepo.FindOne(ctx, reportsCollection, filter).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

// ListRecent returns up to limit reports, newest first.
func (r *ReportsRepository) ListRecent(ctx context.Context, limit int64) ([]*models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := r.mongoRepo.FindMany(ctx, reportsCollection, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*models.Report, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	return reports, nil
}
