package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "job_listings", []string{"id", "title"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"job_listings"}, []string{"id", "title"}).WillReturnResult(3)

	rows := [][]any{{"l-1", "Software Engineer"}, {"l-2", "Data Analyst"}, {"l-3", "SRE"}}
	n, err := CopyFrom(context.Background(), mock, "job_listings", []string{"id", "title"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"job_listings"}, []string{"id", "title"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"l-1", "Software Engineer"}}
	_, err = CopyFrom(context.Background(), mock, "job_listings", []string{"id", "title"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO job_listings")
	assert.NoError(t, mock.ExpectationsWereMet())
}
