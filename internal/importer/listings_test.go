package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// expectUpsert registers the temp-table upsert sequence for one batch.
func expectUpsert(mock pgxmock.PgxPoolIface, table string, columns []string, rows int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_" + table}, columns).WillReturnResult(rows)
	mock.ExpectExec(`INSERT INTO "` + table + `"`).WillReturnResult(pgxmock.NewResult("INSERT", rows))
	mock.ExpectCommit()
	mock.ExpectRollback()
}

func TestImportListingsCSV(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	path := writeTempCSV(t, `id,title,salary_min,salary_max,posted_at
l-1,Software Engineer,90000,120000,2025-04-01
l-2,Data Analyst,,85000,2025-04-02
,Missing ID,50000,60000,2025-04-03
l-4,Bad Date,50000,60000,someday
`)

	expectUpsert(mock, "job_listings", listingColumns, 2)

	n, err := ImportListingsCSV(context.Background(), mock, "job_listings", path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "rows without an id or a parseable date are skipped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportListingsCSV_MissingFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = ImportListingsCSV(context.Background(), mock, "job_listings", "/nonexistent/listings.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open listings export")
}

func TestImportListingsCSV_NoValidRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	path := writeTempCSV(t, `id,title,salary_min,salary_max,posted_at
,No ID,50000,60000,2025-04-03
`)

	n, err := ImportListingsCSV(context.Background(), mock, "job_listings", path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
