package importer

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/talentops/pricing-engine/internal/db"
)

var (
	benchmarkColumns      = []string{"catalog_code", "p10", "p25", "p50", "p75", "p90", "captured_at"}
	benchmarkConflictKeys = []string{"catalog_code", "captured_at"}

	titleColumns      = []string{"catalog_code", "job_family", "title"}
	titleConflictKeys = []string{"catalog_code", "title"}
)

// SurveyResult reports what one workbook import loaded.
type SurveyResult struct {
	Benchmarks int64
	Titles     int64
}

// ImportSurveyXLSX loads a compensation survey workbook. The first sheet
// carries percentile benchmarks keyed by catalog code; an optional sheet
// named "titles" maps catalog codes to job families and known titles.
// Re-importing the same snapshot is idempotent.
func ImportSurveyXLSX(ctx context.Context, pool db.Pool, path string) (*SurveyResult, error) {
	log := zap.L().With(zap.String("file", path))

	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open survey workbook %s", path)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, eris.New("importer: survey workbook has no sheets")
	}

	result := &SurveyResult{}

	n, err := importBenchmarkSheet(ctx, pool, xlFile.Sheets[0])
	if err != nil {
		return nil, err
	}
	result.Benchmarks = n
	log.Info("imported survey benchmarks", zap.Int64("rows", n))

	for _, sheet := range xlFile.Sheets[1:] {
		if !strings.EqualFold(strings.TrimSpace(sheet.Name), "titles") {
			continue
		}
		n, err := importTitleSheet(ctx, pool, sheet)
		if err != nil {
			return nil, err
		}
		result.Titles = n
		log.Info("imported catalog titles", zap.Int64("rows", n))
		break
	}

	return result, nil
}

func importBenchmarkSheet(ctx context.Context, pool db.Pool, sheet *xlsx.Sheet) (int64, error) {
	if len(sheet.Rows) < 2 {
		return 0, eris.New("importer: benchmark sheet is empty")
	}

	colIdx := mapColumns(cellStrings(sheet.Rows[0]))

	var batch [][]any
	var total int64

	for rowIdx := 1; rowIdx < len(sheet.Rows); rowIdx++ {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		record := cellStrings(sheet.Rows[rowIdx])
		code := getCol(record, colIdx, "catalog_code")
		if code == "" {
			continue
		}
		capturedAt := parseTimeOr(getCol(record, colIdx, "captured_at"), time.Time{})
		if capturedAt.IsZero() {
			continue
		}

		batch = append(batch, []any{
			code,
			parseFloat64Or(getCol(record, colIdx, "p10"), 0),
			parseFloat64Or(getCol(record, colIdx, "p25"), 0),
			parseFloat64Or(getCol(record, colIdx, "p50"), 0),
			parseFloat64Or(getCol(record, colIdx, "p75"), 0),
			parseFloat64Or(getCol(record, colIdx, "p90"), 0),
			capturedAt,
		})

		if len(batch) >= batchSize {
			n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
				Table:        "survey_benchmarks",
				Columns:      benchmarkColumns,
				ConflictKeys: benchmarkConflictKeys,
			}, batch)
			if err != nil {
				return total, eris.Wrap(err, "importer: upsert benchmarks")
			}
			total += n
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
			Table:        "survey_benchmarks",
			Columns:      benchmarkColumns,
			ConflictKeys: benchmarkConflictKeys,
		}, batch)
		if err != nil {
			return total, eris.Wrap(err, "importer: upsert benchmarks final batch")
		}
		total += n
	}

	return total, nil
}

func importTitleSheet(ctx context.Context, pool db.Pool, sheet *xlsx.Sheet) (int64, error) {
	if len(sheet.Rows) < 2 {
		return 0, nil
	}

	colIdx := mapColumns(cellStrings(sheet.Rows[0]))

	var batch [][]any
	var total int64

	for rowIdx := 1; rowIdx < len(sheet.Rows); rowIdx++ {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		record := cellStrings(sheet.Rows[rowIdx])
		code := getCol(record, colIdx, "catalog_code")
		title := getCol(record, colIdx, "title")
		if code == "" || title == "" {
			continue
		}

		batch = append(batch, []any{
			code,
			getCol(record, colIdx, "job_family"),
			title,
		})

		if len(batch) >= batchSize {
			n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
				Table:        "catalog_titles",
				Columns:      titleColumns,
				ConflictKeys: titleConflictKeys,
			}, batch)
			if err != nil {
				return total, eris.Wrap(err, "importer: upsert titles")
			}
			total += n
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
			Table:        "catalog_titles",
			Columns:      titleColumns,
			ConflictKeys: titleConflictKeys,
		}, batch)
		if err != nil {
			return total, eris.Wrap(err, "importer: upsert titles final batch")
		}
		total += n
	}

	return total, nil
}

func cellStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = strings.TrimSpace(cell.String())
	}
	return out
}
