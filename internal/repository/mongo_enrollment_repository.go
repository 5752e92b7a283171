package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/enrollments-service/internal/models"
)

// MongoEnrollmentRepository persists enrollments as documents, one per
// enrollment, keyed by the internal id.
type MongoEnrollmentRepository struct {
	coll *mongo.Collection
}

// NewMongoEnrollmentRepository constructs the repository.
func NewMongoEnrollmentRepository(coll *mongo.Collection) *MongoEnrollmentRepository {
	return &MongoEnrollmentRepository{coll: coll}
}

// Save upserts e by internal id, assigning one when it is empty.
func (r *MongoEnrollmentRepository) Save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	saved := *e
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": saved.ID}, saved, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("save enrollment %s: %w", saved.EnrollmentID, err)
	}
	return &saved, nil
}

// FindByEnrollmentID returns the enrollment with the given public id.
func (r *MongoEnrollmentRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.coll.FindOne(ctx, bson.M{"enrollmentId": enrollmentID}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("find enrollment %s: %w", enrollmentID, err)
	}
	return &enrollment, nil
}

// Delete removes e by its internal id.
func (r *MongoEnrollmentRepository) Delete(ctx context.Context, e models.Enrollment) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": e.ID})
	if err != nil {
		return fmt.Errorf("delete enrollment %s: %w", e.EnrollmentID, err)
	}
	if res.DeletedCount == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

// FindAll streams every enrollment to fn, stopping at the first error fn returns.
func (r *MongoEnrollmentRepository) FindAll(ctx context.Context, fn func(models.Enrollment) error) error {
	opts := options.Find().SetSort(bson.D{{Key: "enrollmentYear", Value: 1}, {Key: "enrollmentId", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("list enrollments: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var enrollment models.Enrollment
		if err := cursor.Decode(&enrollment); err != nil {
			return fmt.Errorf("decode enrollment: %w", err)
		}
		if err := fn(enrollment); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate enrollments: %w", err)
	}
	return nil
}
