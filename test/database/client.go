// Package database provides shared test database setup for packages that
// need a real, migrated PostgreSQL instance.
package database

import (
	"testing"

	"github.com/engagic/core/pkg/database"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/test/util"
)

// NewTestClient returns a database.Client backed by a freshly-migrated,
// uniquely-schemaed test database. The container (or CI_DATABASE_URL
// connection) and schema are cleaned up via t.Cleanup.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()
	db := util.SetupTestDatabase(t)
	return database.NewClientFromDB(db)
}

// NewTestStore is NewTestClient plus the repository layer, for packages
// that only ever need *store.Store.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(NewTestClient(t).DB())
}
