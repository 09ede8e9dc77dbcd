package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeDatabase implements Database over in-memory collections, emulating the
// $in field-equality filters the repository builds
type fakeDatabase struct {
	collections []string
	data        map[string][]bson.M

	findCalls []string // "collection/field"
	scanCalls []string
}

func (f *fakeDatabase) CollectionNames(context.Context) ([]string, error) {
	return f.collections, nil
}

func (f *fakeDatabase) Find(_ context.Context, collection string, filter any) ([]bson.M, error) {
	m, ok := filter.(bson.M)
	if !ok || len(m) != 1 {
		return nil, errors.New("unexpected filter shape")
	}

	var matched []bson.M
	for field, condition := range m {
		f.findCalls = append(f.findCalls, collection+"/"+field)
		values := condition.(bson.M)["$in"].(bson.A)
		for _, doc := range f.data[collection] {
			stored, exists := doc[field]
			if !exists {
				continue
			}
			for _, value := range values {
				if reflect.DeepEqual(stored, value) {
					matched = append(matched, doc)
					break
				}
			}
		}
	}
	return matched, nil
}

func (f *fakeDatabase) Scan(_ context.Context, collection string, limit int64) ([]bson.M, error) {
	f.scanCalls = append(f.scanCalls, collection)
	docs := f.data[collection]
	if int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func TestFetchSessionDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("direct field match", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"traces"},
			data: map[string][]bson.M{
				"traces": {
					{"_id": "x1", "sessionId": "abc123", "batchIndex": int32(2)},
					{"_id": "x2", "sessionId": "abc123", "batchIndex": int32(0)},
					{"_id": "x3", "sessionId": "other", "batchIndex": int32(0)},
					{"_id": "x4", "sessionId": "abc123", "batchIndex": int32(1)},
				},
			},
		}
		repo := NewRepository(db, Options{FallbackScanEnabled: true})

		result, err := repo.FetchSessionDocuments(ctx, "abc123")

		require.NoError(t, err)
		require.Len(t, result.Groups, 1)
		assert.Equal(t, "traces", result.Groups[0].Collection)
		assert.Len(t, result.Groups[0].Documents, 3)
		assert.Equal(t, []string{"traces"}, result.Diagnostic.MatchedCollections)
		assert.False(t, result.Diagnostic.FallbackScan.Ran)
		assert.Empty(t, db.scanCalls)
	})

	t.Run("storage id stripped from payload", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"traces"},
			data: map[string][]bson.M{
				"traces": {{"_id": "internal", "sessionId": "abc123"}},
			},
		}
		repo := NewRepository(db, Options{})

		result, err := repo.FetchSessionDocuments(ctx, "abc123")

		require.NoError(t, err)
		body := result.Groups[0].Documents[0].Body
		_, ok := body.Get("_id")
		assert.False(t, ok)
		_, ok = body.Get("sessionId")
		assert.True(t, ok)
	})

	t.Run("first matching field wins", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"traces"},
			data: map[string][]bson.M{
				"traces": {{"session_id": "abc123"}},
			},
		}
		repo := NewRepository(db, Options{SessionIDFields: []string{"sessionId", "session_id"}})

		result, err := repo.FetchSessionDocuments(ctx, "abc123")

		require.NoError(t, err)
		assert.Len(t, result.Groups[0].Documents, 1)
		// Both fields were attempted, in order
		assert.Equal(t, []string{"traces/sessionId", "traces/session_id"}, db.findCalls)
	})

	t.Run("restricted collections searched in configured order", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"events", "ignored", "traces"},
			data: map[string][]bson.M{
				"traces":  {{"sessionId": "abc123"}},
				"events":  {{"sessionId": "abc123"}},
				"ignored": {{"sessionId": "abc123"}},
			},
		}
		repo := NewRepository(db, Options{
			SessionIDFields: []string{"sessionId"},
			Collections:     []string{"traces", "events"},
		})

		result, err := repo.FetchSessionDocuments(ctx, "abc123")

		require.NoError(t, err)
		require.Len(t, result.Groups, 2)
		assert.Equal(t, "traces", result.Groups[0].Collection)
		assert.Equal(t, "events", result.Groups[1].Collection)
		assert.Equal(t, []string{"traces", "events"}, result.Diagnostic.CollectionsChecked)
	})

	t.Run("not found diagnostic lists every attempt", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"events", "traces"},
			data: map[string][]bson.M{
				"traces": {{"sessionId": "other"}},
			},
		}
		repo := NewRepository(db, Options{
			SessionIDFields:     []string{"sessionId", "session_id"},
			FallbackScanEnabled: true,
			FallbackScanLimit:   1000,
		})

		_, err := repo.FetchSessionDocuments(ctx, "missing-session")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing-session", notFound.SessionID)

		diagnostic := notFound.Diagnostic
		assert.Equal(t, []string{"sessionId", "session_id"}, diagnostic.FieldsChecked)
		assert.Equal(t, []string{"events", "traces"}, diagnostic.CollectionsChecked)
		assert.Equal(t, []string{"string:missing-session"}, diagnostic.CandidateValues)
		assert.Empty(t, diagnostic.MatchedCollections)
		assert.True(t, diagnostic.FallbackScan.Enabled)
		assert.True(t, diagnostic.FallbackScan.Ran)
		assert.Equal(t, 1000, diagnostic.FallbackScan.Limit)
		assert.Equal(t, 1, diagnostic.FallbackScan.DocumentsScanned)
	})

	t.Run("fallback scan finds nested identifier", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"traces"},
			data: map[string][]bson.M{
				"traces": {
					{"payload": bson.M{"meta": bson.M{"session": "abc123"}}},
					{"payload": bson.M{"meta": bson.M{"session": "zzz"}}},
				},
			},
		}
		repo := NewRepository(db, Options{
			SessionIDFields:     []string{"sessionId"},
			FallbackScanEnabled: true,
			FallbackScanLimit:   1000,
		})

		result, err := repo.FetchSessionDocuments(ctx, "abc123")

		require.NoError(t, err)
		require.Len(t, result.Groups, 1)
		assert.Len(t, result.Groups[0].Documents, 1)
		assert.True(t, result.Diagnostic.FallbackScan.Ran)
		assert.Equal(t, 2, result.Diagnostic.FallbackScan.DocumentsScanned)
		assert.Equal(t, []string{"traces"}, result.Diagnostic.MatchedCollections)
	})

	t.Run("fallback disabled yields not found without scanning", func(t *testing.T) {
		db := &fakeDatabase{
			collections: []string{"traces"},
			data: map[string][]bson.M{
				"traces": {{"payload": bson.M{"meta": bson.M{"session": "abc123"}}}},
			},
		}
		repo := NewRepository(db, Options{SessionIDFields: []string{"sessionId"}})

		_, err := repo.FetchSessionDocuments(ctx, "abc123")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.False(t, notFound.Diagnostic.FallbackScan.Enabled)
		assert.False(t, notFound.Diagnostic.FallbackScan.Ran)
		assert.Empty(t, db.scanCalls)
	})

	t.Run("fallback scan respects document limit", func(t *testing.T) {
		docs := make([]bson.M, 10)
		for i := range docs {
			docs[i] = bson.M{"payload": "nothing here"}
		}
		db := &fakeDatabase{
			collections: []string{"traces"},
			data:        map[string][]bson.M{"traces": docs},
		}
		repo := NewRepository(db, Options{
			SessionIDFields:     []string{"sessionId"},
			FallbackScanEnabled: true,
			FallbackScanLimit:   4,
		})

		_, err := repo.FetchSessionDocuments(ctx, "abc123")

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, 4, notFound.Diagnostic.FallbackScan.DocumentsScanned)
	})

	t.Run("defaults applied", func(t *testing.T) {
		repo := NewRepository(&fakeDatabase{}, Options{})

		assert.Equal(t, DefaultSessionIDFields, repo.opts.SessionIDFields)
		assert.Equal(t, DefaultFallbackScanLimit, repo.opts.FallbackScanLimit)
	})
}
