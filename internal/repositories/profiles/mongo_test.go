package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

type fakeCollection struct {
	docs       map[string]models.ProfileRecord
	lastUpdate bson.M
	err        error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: map[string]models.ProfileRecord{}}
}

func (f *fakeCollection) findOne(_ context.Context, id string) (*models.ProfileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &rec, nil
}

func (f *fakeCollection) replace(_ context.Context, rec *models.ProfileRecord) error {
	if f.err != nil {
		return f.err
	}
	f.docs[rec.ID] = *rec
	return nil
}

func (f *fakeCollection) updateFields(_ context.Context, id string, update bson.M) (*models.ProfileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastUpdate = update
	rec, existed := f.docs[id]
	rec.ID = id
	if set, ok := update["$set"].(bson.M); ok {
		if v, ok := set["email"].(string); ok {
			rec.Email = v
		}
		if v, ok := set["fullName"].(string); ok {
			rec.FullName = v
		}
		if v, ok := set["cluster"].(string); ok {
			rec.Cluster = v
		}
		if v, ok := set["updatedAt"].(time.Time); ok {
			rec.UpdatedAt = v
		}
	}
	if onInsert, ok := update["$setOnInsert"].(bson.M); ok && !existed {
		if v, ok := onInsert["createdAt"].(time.Time); ok {
			rec.CreatedAt = v
		}
	}
	f.docs[id] = rec
	return &rec, nil
}

func (f *fakeCollection) deleteOne(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.docs, id)
	return nil
}

func TestMongo_ReadNotFound(t *testing.T) {
	repo := &MongoRepository{coll: newFakeCollection()}

	_, err := repo.Read(context.Background(), "u-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMongo_ReplaceThenMerge(t *testing.T) {
	fc := newFakeCollection()
	repo := &MongoRepository{coll: fc}
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	_, err := repo.Upsert(ctx, "u-1", models.ProfileFields{
		Email: models.Ptr("a@b.com"), Cluster: models.Ptr("C1"), CreatedAt: &created, UpdatedAt: &created,
	}, false)
	require.NoError(t, err)

	rec, err := repo.Upsert(ctx, "u-1", models.ProfileFields{UpdatedAt: &updated}, true)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$set": bson.M{"updatedAt": updated}}, fc.lastUpdate)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, updated, rec.UpdatedAt)
	assert.Equal(t, "C1", rec.Cluster)
}

func TestMongo_ErrorsAreWrapped(t *testing.T) {
	fc := newFakeCollection()
	fc.err = errors.New("server selection timeout")
	repo := &MongoRepository{coll: fc}

	_, err := repo.Upsert(context.Background(), "u-1", models.ProfileFields{}, true)
	assert.ErrorContains(t, err, "mongo error: server selection timeout")

	err = repo.Delete(context.Background(), "u-1")
	assert.ErrorContains(t, err, "mongo error")
}

func TestSetDocument(t *testing.T) {
	ts := time.Now()
	got := setDocument(models.ProfileFields{
		Email: models.Ptr("a@b.com"), FullName: models.Ptr("A"), Role: models.Ptr(models.RoleCoordinator),
		Mobile: models.Ptr("1234567890"), UpdatedAt: &ts,
	})
	assert.Equal(t, bson.M{
		"email": "a@b.com", "fullName": "A", "role": models.RoleCoordinator,
		"mobile": "1234567890", "updatedAt": ts,
	}, got)
}

func TestMongo_MergeSetsCreatedAtOnlyOnInsert(t *testing.T) {
	fc := newFakeCollection()
	repo := &MongoRepository{coll: fc}
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	_, err := repo.Upsert(ctx, "u-1", models.ProfileFields{
		Email: models.Ptr("a@b.com"), CreatedAt: &first, UpdatedAt: &first,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"$set":         bson.M{"email": "a@b.com", "updatedAt": first},
		"$setOnInsert": bson.M{"createdAt": first},
	}, fc.lastUpdate)

	rec, err := repo.Upsert(ctx, "u-1", models.ProfileFields{
		FullName: models.Ptr("A B"), Cluster: models.Ptr("C1"), CreatedAt: &second, UpdatedAt: &second,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, first, rec.CreatedAt)
	assert.Equal(t, second, rec.UpdatedAt)
	assert.Equal(t, "a@b.com", rec.Email)
	assert.Equal(t, "C1", rec.Cluster)
}

func TestMergeUpdate_NoFields(t *testing.T) {
	assert.Equal(t, bson.M{"$setOnInsert": bson.M{"_id": "u-1"}}, mergeUpdate("u-1", models.ProfileFields{}))
}
