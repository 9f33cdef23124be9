package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ruralsite/internal/models"
	"ruralsite/internal/storage"
)

// BackfillReport counts what a handle backfill found per table.
type BackfillReport struct {
	Table   string
	Missing int
	Filled  int
	Foreign []string
}

type assetRow struct {
	ID  string
	URL string
}

// BackfillHandles derives the delete handle of every asset stored without
// one from its URL. URLs that do not belong to baseURL are reported and left
// alone. With dryRun nothing is written.
func BackfillHandles(ctx context.Context, db *gorm.DB, baseURL string, dryRun bool) ([]BackfillReport, error) {
	var reports []BackfillReport
	for _, content := range models.ContentModels() {
		report, err := backfillTable(ctx, db, content, baseURL, dryRun)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func backfillTable(ctx context.Context, db *gorm.DB, content models.Content, baseURL string, dryRun bool) (BackfillReport, error) {
	table := GormTableName(db, content)
	prefix := content.AssetField() + "_"
	urlCol, handleCol := prefix+"url", prefix+"handle"
	report := BackfillReport{Table: table}

	var rows []assetRow
	err := db.WithContext(ctx).Table(table).
		Select("id, " + urlCol + " AS url").
		Where(urlCol + " <> ''").
		Where("(" + handleCol + " = '' OR " + handleCol + " IS NULL)").
		Scan(&rows).Error
	if err != nil {
		return report, cleanupLog.Error("Failed to scan %s", err, table)
	}
	report.Missing = len(rows)

	for _, row := range rows {
		handle, err := storage.HandleFromURL(baseURL, row.URL)
		if errors.Is(err, storage.ErrForeignURL) || errors.Is(err, storage.ErrBadHandle) {
			report.Foreign = append(report.Foreign, row.ID)
			cleanupLog.Warn("%s %s: cannot derive handle from %s", table, row.ID, row.URL)
			continue
		}
		if err != nil {
			return report, err
		}
		if dryRun {
			report.Filled++
			continue
		}
		if err := db.WithContext(ctx).Table(table).Where("id = ?", row.ID).Update(handleCol, handle).Error; err != nil {
			return report, cleanupLog.Error("Failed to set handle on %s %s", err, table, row.ID)
		}
		report.Filled++
	}
	return report, nil
}
