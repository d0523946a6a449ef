package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"testing"

	"github.com/engagic/core/pkg/database"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/test/util"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
)

// SharedTestDB creates a single PostgreSQL schema that can be used by
// multiple independent connection pools — for tests exercising concurrent
// fetcher/processor replicas racing over the same durable queue, where
// SELECT ... FOR UPDATE SKIP LOCKED correctness depends on more than one
// pool touching the same rows.
type SharedTestDB struct {
	connStrWithSchema string
	schemaName        string
}

// NewSharedTestDB creates a shared schema, migrates it once, and registers
// t.Cleanup to drop it. Call Store to create independent stores for each
// replica.
func NewSharedTestDB(t *testing.T) *SharedTestDB {
	t.Helper()
	ctx := context.Background()

	baseConnStr := util.GetBaseConnectionString(t)
	schemaName := util.GenerateSchemaName(t)

	db, err := stdsql.Open("pgx", baseConnStr)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", schemaName))
	require.NoError(t, err)
	t.Logf("SharedTestDB: created schema %s", schemaName)
	_ = db.Close()

	connStrWithSchema := util.AddSearchPathToConnString(baseConnStr, schemaName)
	db, err = stdsql.Open("pgx", connStrWithSchema)
	require.NoError(t, err)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	require.NoError(t, database.RunMigrationsForTest(ctx, db, schemaName))
	_ = db.Close()

	s := &SharedTestDB{connStrWithSchema: connStrWithSchema, schemaName: schemaName}

	// Drop the schema after all replicas have shut down (LIFO order
	// guarantees each replica's own cleanup runs before this one).
	t.Cleanup(func() {
		cleanDB, err := stdsql.Open("pgx", baseConnStr)
		if err != nil {
			t.Logf("SharedTestDB: warning: could not connect to drop schema %s: %v", schemaName, err)
			return
		}
		defer func() { _ = cleanDB.Close() }()
		_, err = cleanDB.ExecContext(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
		if err != nil {
			t.Logf("SharedTestDB: warning: failed to drop schema %s: %v", schemaName, err)
		}
	})

	return s
}

// Store creates an independent *store.Store backed by a fresh connection
// pool to the shared schema. Each replica has its own pool so instances
// can be shut down independently without races.
func (s *SharedTestDB) Store(t *testing.T) *store.Store {
	t.Helper()

	db, err := stdsql.Open("pgx", s.connStrWithSchema)
	require.NoError(t, err)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	t.Cleanup(func() { _ = db.Close() })

	return store.New(db)
}
