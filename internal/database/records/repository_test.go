package records

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroad/driveadmin/internal/database"
	"github.com/openroad/driveadmin/internal/schema"
)

// setupTestRepo creates a fresh test database with the full schema.
func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := NewRepository(db.DB, schema.NewRegistry())
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return repo, cleanup
}

func createAccount(t *testing.T, repo *Repository, email, name string) (schema.Record, string) {
	t.Helper()
	rec, token, err := repo.Create(schema.EntityAccounts, schema.Record{
		"email":     email,
		"full_name": name,
		"role":      "student",
		"status":    "ACTIVE",
	})
	require.NoError(t, err)
	return rec, token
}

func TestCreate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	t.Run("new records start at version 1", func(t *testing.T) {
		rec, token, err := repo.Create(schema.EntityAccounts, schema.Record{
			"email":     "alice@example.com",
			"full_name": "Alice Lee",
			"role":      "student",
			"status":    "ACTIVE",
		})
		require.NoError(t, err)
		assert.Equal(t, "v1", token)
		assert.Equal(t, int64(1), rec.Version())
		assert.NotZero(t, rec.ID())
		assert.Equal(t, "alice@example.com", rec.String("email"))
	})

	t.Run("rejects undeclared fields", func(t *testing.T) {
		_, _, err := repo.Create(schema.EntityAccounts, schema.Record{
			"email":         "bob@example.com",
			"password_hash": "sneaky",
		})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "password_hash", validation.Field)
	})

	t.Run("rejects store-owned fields", func(t *testing.T) {
		_, _, err := repo.Create(schema.EntityAccounts, schema.Record{
			"email":   "eve@example.com",
			"version": int64(9),
		})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "version", validation.Field)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, _, err := repo.Create(schema.EntityAccounts, schema.Record{})
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("unknown entity kind", func(t *testing.T) {
		_, _, err := repo.Create("invoices", schema.Record{"email": "x"})
		assert.ErrorIs(t, err, ErrUnknownEntity)
	})

	t.Run("duplicate unique value surfaces as validation error", func(t *testing.T) {
		createAccount(t, repo, "taken@example.com", "First Claim")

		_, _, err := repo.Create(schema.EntityAccounts, schema.Record{
			"email":     "taken@example.com",
			"full_name": "Second Claim",
			"role":      "student",
			"status":    "ACTIVE",
		})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Error(), "duplicate")
	})
}

func TestUniqueConflictClassification(t *testing.T) {
	unique := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	pk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	assert.True(t, isUniqueConflict(unique))
	assert.True(t, isUniqueConflict(pk))
	assert.False(t, isUniqueConflict(busy))
	assert.False(t, isUniqueConflict(errors.New("plain error")))

	wrapped := fmt.Errorf("insert: %w", unique)
	assert.True(t, isUniqueConflict(wrapped))
}

func TestGet(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	created, _ := createAccount(t, repo, "carol@example.com", "Carol Diaz")

	t.Run("returns the record and its token", func(t *testing.T) {
		rec, token, err := repo.Get(schema.EntityAccounts, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "v1", token)
		assert.Equal(t, "Carol Diaz", rec.String("full_name"))
	})

	t.Run("never exposes credential columns", func(t *testing.T) {
		rec, _, err := repo.Get(schema.EntityAccounts, created.ID())
		require.NoError(t, err)
		assert.NotContains(t, rec, "password_hash")
		assert.NotContains(t, rec, "token_hash")
	})

	t.Run("missing id", func(t *testing.T) {
		_, _, err := repo.Get(schema.EntityAccounts, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConditionalUpdate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	t.Run("current token applies and bumps the version", func(t *testing.T) {
		rec, token := createAccount(t, repo, "dan@example.com", "Dan Wu")

		updated, newToken, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token,
			schema.Record{"full_name": "Daniel Wu"})
		require.NoError(t, err)
		assert.Equal(t, "v2", newToken)
		assert.Equal(t, int64(2), updated.Version())
		assert.Equal(t, "Daniel Wu", updated.String("full_name"))
	})

	t.Run("stale token conflicts and returns the current record", func(t *testing.T) {
		rec, token := createAccount(t, repo, "erin@example.com", "Erin Moss")

		// First edit consumes the token
		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token,
			schema.Record{"full_name": "Erin M"})
		require.NoError(t, err)

		// Replaying the original token must fail with current state attached
		_, _, err = repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token,
			schema.Record{"full_name": "Someone Else"})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "v2", conflict.ETag)
		assert.Equal(t, "Erin M", conflict.Current.String("full_name"))

		// The losing write left no trace
		current, _, err := repo.Get(schema.EntityAccounts, rec.ID())
		require.NoError(t, err)
		assert.Equal(t, "Erin M", current.String("full_name"))
	})

	t.Run("undecodable token behaves like a stale one", func(t *testing.T) {
		rec, _ := createAccount(t, repo, "frank@example.com", "Frank Ito")

		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), "garbage",
			schema.Record{"full_name": "F"})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "v1", conflict.ETag)
	})

	t.Run("missing record", func(t *testing.T) {
		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, 9999, "v1",
			schema.Record{"full_name": "Ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects non-editable fields", func(t *testing.T) {
		rec, token := createAccount(t, repo, "gina@example.com", "Gina Park")

		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token,
			schema.Record{"role": "admin"})
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "role", validation.Field)
	})

	t.Run("rejects empty change sets", func(t *testing.T) {
		rec, token := createAccount(t, repo, "hugo@example.com", "Hugo Silva")

		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token, schema.Record{})
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestConditionalDelete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	t.Run("current token deletes", func(t *testing.T) {
		rec, token := createAccount(t, repo, "iris@example.com", "Iris Chen")

		require.NoError(t, repo.ConditionalDelete(schema.EntityAccounts, rec.ID(), token))

		_, _, err := repo.Get(schema.EntityAccounts, rec.ID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stale token conflicts without deleting", func(t *testing.T) {
		rec, token := createAccount(t, repo, "jack@example.com", "Jack Reed")

		_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, rec.ID(), token,
			schema.Record{"full_name": "Jack R"})
		require.NoError(t, err)

		err = repo.ConditionalDelete(schema.EntityAccounts, rec.ID(), token)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)

		_, _, err = repo.Get(schema.EntityAccounts, rec.ID())
		assert.NoError(t, err, "record survives the failed delete")
	})

	t.Run("missing record", func(t *testing.T) {
		err := repo.ConditionalDelete(schema.EntityAccounts, 9999, "v1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestList(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	a, _ := createAccount(t, repo, "a@example.com", "A")
	b, _ := createAccount(t, repo, "b@example.com", "B")
	_, _ = createAccount(t, repo, "c@example.com", "C")

	t.Run("by explicit ids", func(t *testing.T) {
		recs, err := repo.List(schema.EntityAccounts, []int64{a.ID(), b.ID()})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, a.ID(), recs[0].ID())
		assert.Equal(t, b.ID(), recs[1].ID())
	})

	t.Run("nil ids lists everything", func(t *testing.T) {
		recs, err := repo.List(schema.EntityAccounts, nil)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("missing ids are simply absent", func(t *testing.T) {
		recs, err := repo.List(schema.EntityAccounts, []int64{a.ID(), 9999})
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})
}

func TestVersionsAreIndependentPerRecord(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	first, firstToken := createAccount(t, repo, "k@example.com", "K")
	second, secondToken := createAccount(t, repo, "l@example.com", "L")

	// Editing the first record must not invalidate the second's token
	_, _, err := repo.ConditionalUpdate(schema.EntityAccounts, first.ID(), firstToken,
		schema.Record{"full_name": "K2"})
	require.NoError(t, err)

	_, newToken, err := repo.ConditionalUpdate(schema.EntityAccounts, second.ID(), secondToken,
		schema.Record{"full_name": "L2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", newToken)

	var conflict *ConflictError
	_, _, err = repo.ConditionalUpdate(schema.EntityAccounts, first.ID(), firstToken,
		schema.Record{"full_name": "K3"})
	require.True(t, errors.As(err, &conflict))
}
