package profiles

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

// CollectionName is the Mongo collection holding profile documents.
const CollectionName = "profiles"

// documentCollection is the part of *mongo.Collection the repository needs,
// reduced to decoded values so tests can substitute it.
type documentCollection interface {
	findOne(ctx context.Context, id string) (*models.ProfileRecord, error)
	replace(ctx context.Context, rec *models.ProfileRecord) error
	updateFields(ctx context.Context, id string, update bson.M) (*models.ProfileRecord, error)
	deleteOne(ctx context.Context, id string) error
}

type MongoRepository struct {
	coll documentCollection
}

// NewMongoRepository stores profiles in db.profiles.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: &mongoCollection{c: db.Collection(CollectionName)}}
}

func (r *MongoRepository) Read(ctx context.Context, id string) (*models.ProfileRecord, error) {
	rec, err := r.coll.findOne(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return rec, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, id string, fields models.ProfileFields, merge bool) (*models.ProfileRecord, error) {
	if !merge {
		rec := models.ProfileRecord{ID: id}
		fields.Apply(&rec, false)
		if err := r.coll.replace(ctx, &rec); err != nil {
			return nil, fmt.Errorf("mongo error: %w", err)
		}
		return &rec, nil
	}

	rec, err := r.coll.updateFields(ctx, id, mergeUpdate(id, fields))
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return rec, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.deleteOne(ctx, id); err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

// mergeUpdate builds the upsert for a merge: supplied fields go to $set and
// createdAt to $setOnInsert. An empty $set is rejected by the server, so with
// nothing to write only the id is set on insert.
func mergeUpdate(id string, f models.ProfileFields) bson.M {
	update := bson.M{}
	if set := setDocument(f); len(set) > 0 {
		update["$set"] = set
	}
	if f.CreatedAt != nil {
		update["$setOnInsert"] = bson.M{"createdAt": *f.CreatedAt}
	}
	if len(update) == 0 {
		update["$setOnInsert"] = bson.M{"_id": id}
	}
	return update
}

// setDocument maps the supplied fields except createdAt to their bson keys.
func setDocument(f models.ProfileFields) bson.M {
	set := bson.M{}
	if f.Email != nil {
		set["email"] = *f.Email
	}
	if f.FullName != nil {
		set["fullName"] = *f.FullName
	}
	if f.Role != nil {
		set["role"] = *f.Role
	}
	if f.Cluster != nil {
		set["cluster"] = *f.Cluster
	}
	if f.Mobile != nil {
		set["mobile"] = *f.Mobile
	}
	if f.UpdatedAt != nil {
		set["updatedAt"] = *f.UpdatedAt
	}
	return set
}

type mongoCollection struct {
	c *mongo.Collection
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (m *mongoCollection) findOne(ctx context.Context, id string) (*models.ProfileRecord, error) {
	var rec models.ProfileRecord
	if err := m.c.FindOne(ctx, byID(id)).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *mongoCollection) replace(ctx context.Context, rec *models.ProfileRecord) error {
	_, err := m.c.ReplaceOne(ctx, byID(rec.ID), rec, options.Replace().SetUpsert(true))
	return err
}

func (m *mongoCollection) updateFields(ctx context.Context, id string, update bson.M) (*models.ProfileRecord, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var rec models.ProfileRecord
	if err := m.c.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *mongoCollection) deleteOne(ctx context.Context, id string) error {
	_, err := m.c.DeleteOne(ctx, byID(id))
	return err
}
