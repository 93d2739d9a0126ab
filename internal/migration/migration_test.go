package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/checkmapper/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestApplyUsesAutoMigrateOnSQLite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, Apply(conn))
	for _, table := range []string{"tenants", "internal_mappings", "checks", "audit_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
