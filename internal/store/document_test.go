package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"approval-console/internal/model"
)

// newTestStore connects to MONGODB_URI and uses a throwaway database.
// The test is skipped when no MongoDB is configured.
func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	db, err := NewMongoDB(uri, "approval_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.db.Drop(ctx)
		db.Close(ctx)
	})

	st, err := NewDocumentStore(context.Background(), db)
	require.NoError(t, err)
	return st
}

func TestDocumentStoreDecidePending(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 16, 4, 58, 52, 0, time.UTC)

	docs := []*model.Document{
		{DocNo: "IT03-0001", Title: "Laptop", Status: model.StatusPending, CreatedAt: now, UpdatedAt: now},
		{DocNo: "IT03-0002", Title: "Monitor", Status: model.StatusPending, CreatedAt: now, UpdatedAt: now},
		{DocNo: "IT03-0003", Title: "Mouse", Status: model.StatusApproved, Reason: "done", CreatedAt: now, UpdatedAt: now},
	}
	for _, d := range docs {
		d.ID = bson.NewObjectID()
	}
	n, err := st.InsertMany(ctx, docs)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	later := now.Add(time.Hour)
	modified, err := st.DecidePending(ctx, []bson.ObjectID{docs[0].ID, docs[2].ID}, model.StatusRejected, "over budget", later)
	require.NoError(t, err)
	assert.EqualValues(t, 1, modified, "already decided documents are left alone")

	all, err := st.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.StatusRejected, all[0].Status)
	assert.Equal(t, "over budget", all[0].Reason)
	assert.True(t, all[0].UpdatedAt.Equal(later))
	assert.Equal(t, model.StatusPending, all[1].Status)
	assert.Equal(t, model.StatusApproved, all[2].Status)
	assert.Equal(t, "done", all[2].Reason)

	pending, err := st.List(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "IT03-0002", pending[0].DocNo)

	require.NoError(t, st.DeleteAll(ctx))
	all, err = st.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
