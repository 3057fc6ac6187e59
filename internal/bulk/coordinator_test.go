package bulk

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroad/driveadmin/internal/database"
	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/protect"
	"github.com/openroad/driveadmin/internal/schema"
)

func setupTestCoordinator(t *testing.T, workers int) (*Coordinator, *records.Repository, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	registry := schema.NewRegistry()
	repo := records.NewRepository(db.DB, registry)
	coordinator := NewCoordinator(repo, protect.NewPolicy(registry), workers)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return coordinator, repo, cleanup
}

func createAccount(t *testing.T, repo *records.Repository, email, role string) int64 {
	t.Helper()
	rec, _, err := repo.Create(schema.EntityAccounts, schema.Record{
		"email":     email,
		"full_name": "Test " + email,
		"role":      role,
		"status":    "ACTIVE",
	})
	require.NoError(t, err)
	return rec.ID()
}

func TestBulkUpdate(t *testing.T) {
	coordinator, repo, cleanup := setupTestCoordinator(t, 4)
	defer cleanup()

	ownerID := createAccount(t, repo, "owner@example.com", "owner")
	adminID := createAccount(t, repo, "admin@example.com", "admin")
	studentID := createAccount(t, repo, "student@example.com", "student")

	t.Run("protected records fail, the rest apply", func(t *testing.T) {
		result, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    []int64{ownerID, adminID, studentID},
			Field:  "status",
			Value:  "SUSPENDED",
		})
		require.NoError(t, err)

		assert.Equal(t, []int64{adminID, studentID}, result.Succeeded)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, ownerID, result.Failed[0].ID)
		assert.Equal(t, ReasonProtected, result.Failed[0].Reason)

		// Updated records carry incremented versions
		rec, token, err := repo.Get(schema.EntityAccounts, adminID)
		require.NoError(t, err)
		assert.Equal(t, "SUSPENDED", rec.String("status"))
		assert.Equal(t, "v2", token)

		// The protected record is untouched
		rec, _, err = repo.Get(schema.EntityAccounts, ownerID)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", rec.String("status"))
	})

	t.Run("missing ids are reported per record", func(t *testing.T) {
		result, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    []int64{studentID, 9999},
			Field:  "status",
			Value:  "ACTIVE",
		})
		require.NoError(t, err)

		assert.Equal(t, []int64{studentID}, result.Succeeded)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, ReasonNotFound, result.Failed[0].Reason)
	})

	t.Run("every id is accounted for exactly once", func(t *testing.T) {
		ids := []int64{ownerID, adminID, studentID, 7777, 8888}
		result, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    ids,
			Field:  "status",
			Value:  "ACTIVE",
		})
		require.NoError(t, err)
		assert.Equal(t, len(ids), len(result.Succeeded)+len(result.Failed))
	})

	t.Run("duplicate ids collapse to one outcome", func(t *testing.T) {
		result, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    []int64{studentID, studentID, studentID},
			Field:  "status",
			Value:  "ACTIVE",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Succeeded)+len(result.Failed))
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		result, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    nil,
			Field:  "status",
			Value:  "ACTIVE",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Succeeded)
		assert.Empty(t, result.Failed)
	})
}

func TestBulkUpdateValidation(t *testing.T) {
	coordinator, _, cleanup := setupTestCoordinator(t, 2)
	defer cleanup()

	t.Run("unknown entity kind", func(t *testing.T) {
		_, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: "invoices",
			IDs:    []int64{1},
			Field:  "status",
			Value:  "ACTIVE",
		})
		assert.ErrorIs(t, err, records.ErrUnknownEntity)
	})

	t.Run("non-editable field", func(t *testing.T) {
		_, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    []int64{1},
			Field:  "role",
			Value:  "admin",
		})
		var validation *records.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := coordinator.BulkUpdate(context.Background(), Request{
			Entity: schema.EntityAccounts,
			IDs:    []int64{1},
		})
		var validation *records.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestBulkUpdateCancellation(t *testing.T) {
	coordinator, repo, cleanup := setupTestCoordinator(t, 1)
	defer cleanup()

	var ids []int64
	for i := 0; i < 50; i++ {
		ids = append(ids, createAccount(t, repo, fmt.Sprintf("u%d@example.com", i), "student"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := coordinator.BulkUpdate(ctx, Request{
		Entity: schema.EntityAccounts,
		IDs:    ids,
		Field:  "status",
		Value:  "SUSPENDED",
	})
	require.NoError(t, err)

	// Accounting stays complete: everything not applied shows up as a
	// cancelled failure.
	assert.Equal(t, len(ids), len(result.Succeeded)+len(result.Failed))
	cancelled := 0
	for _, f := range result.Failed {
		if f.Reason == ReasonCancelled {
			cancelled++
		}
	}
	assert.NotZero(t, cancelled, "a cancelled context stops scheduling")
}
