package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/talentops/pricing-engine/internal/db"
)

var (
	listingColumns      = []string{"id", "title", "salary_min", "salary_max", "posted_at"}
	listingConflictKeys = []string{"id"}
)

// ListingTables maps the importer target flag to the actual table.
var ListingTables = map[string]string{
	"primary":   "job_listings",
	"secondary": "job_listings_secondary",
}

// ImportListingsCSV loads a job listing export into the named listings table.
// Expected header: id, title, salary_min, salary_max, posted_at. Rows without
// an id or title are skipped; missing salary bounds are stored as NULL.
func ImportListingsCSV(ctx context.Context, pool db.Pool, table string, path string) (int64, error) {
	log := zap.L().With(zap.String("file", path), zap.String("table", table))

	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: open listings export %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, eris.Wrap(err, "importer: read listings header")
	}
	colIdx := mapColumns(header)

	var batch [][]any
	var total int64
	skipped := 0

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		id := getCol(record, colIdx, "id")
		title := getCol(record, colIdx, "title")
		if id == "" || title == "" {
			skipped++
			continue
		}

		postedAt := parseTimeOr(getCol(record, colIdx, "posted_at"), time.Time{})
		if postedAt.IsZero() {
			skipped++
			continue
		}

		batch = append(batch, []any{
			id,
			title,
			parseFloatPtr(getCol(record, colIdx, "salary_min")),
			parseFloatPtr(getCol(record, colIdx, "salary_max")),
			postedAt,
		})

		if len(batch) >= batchSize {
			n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
				Table:        table,
				Columns:      listingColumns,
				ConflictKeys: listingConflictKeys,
			}, batch)
			if err != nil {
				return total, eris.Wrap(err, "importer: upsert listings")
			}
			total += n
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
			Table:        table,
			Columns:      listingColumns,
			ConflictKeys: listingConflictKeys,
		}, batch)
		if err != nil {
			return total, eris.Wrap(err, "importer: upsert listings final batch")
		}
		total += n
	}

	log.Info("imported job listings", zap.Int64("rows", total), zap.Int("skipped", skipped))
	return total, nil
}
