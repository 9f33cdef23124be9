package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ruralsite/internal/events"
	"ruralsite/internal/models"
	"ruralsite/internal/storage"
	console "ruralsite/internal/utils/logger"
)

var cleanupLog = console.New("ASSET_CLEANUP")

// strandTimeout bounds the bookkeeping done after the request may be gone.
const strandTimeout = 10 * time.Second

// AssetCleanup records remote assets whose delete failed and retries them.
type AssetCleanup struct {
	db    *gorm.DB
	store storage.AssetStore
	bus   *events.EventBus
}

func NewAssetCleanup(db *gorm.DB, store storage.AssetStore, bus *events.EventBus) *AssetCleanup {
	return &AssetCleanup{db: db, store: store, bus: bus}
}

// Strand logs and persists an asset that is no longer referenced but still
// exists remotely, then announces it so a worker can retry the delete.
func (c *AssetCleanup) Strand(ctx context.Context, asset models.ManagedAsset, resource, reason string, cause error) {
	if asset.Handle == "" {
		cleanupLog.Warn("Stranded %s asset without a handle (%s): %s", resource, reason, asset.URL)
		return
	}
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	cleanupLog.Warn("Stranded %s asset %s (%s): %s", resource, asset.Handle, reason, lastError)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), strandTimeout)
	defer cancel()

	row := &models.StrandedAsset{
		Handle:    asset.Handle,
		URL:       asset.URL,
		Resource:  resource,
		Reason:    reason,
		LastError: lastError,
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "last_error", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		_ = cleanupLog.Error("Failed to record stranded asset %s", err, asset.Handle)
		return
	}

	c.bus.Emit(events.AssetStranded, events.StrandedEvent{Handle: asset.Handle, Resource: resource})
}

// Retry deletes one stranded asset. The row is removed on success and its
// attempt counter bumped on failure.
func (c *AssetCleanup) Retry(ctx context.Context, handle string) error {
	var row models.StrandedAsset
	if err := c.db.WithContext(ctx).Where("handle = ?", handle).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := c.store.Delete(ctx, row.Handle); err != nil {
		if upd := c.db.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": err.Error(),
		}).Error; upd != nil {
			_ = cleanupLog.Error("Failed to update stranded asset %s", upd, row.Handle)
		}
		return err
	}

	if err := c.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return err
	}
	cleanupLog.Success("Deleted stranded asset %s", row.Handle)
	return nil
}

// Sweep retries every stranded asset below maxAttempts and returns how many
// were cleared and how many remain.
func (c *AssetCleanup) Sweep(ctx context.Context, maxAttempts int) (cleared, remaining int, err error) {
	var rows []models.StrandedAsset
	query := c.db.WithContext(ctx).Order("created_at")
	if maxAttempts > 0 {
		query = query.Where("attempts < ?", maxAttempts)
	}
	if err := query.Find(&rows).Error; err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			return cleared, len(rows) - cleared, ctx.Err()
		}
		if err := c.Retry(ctx, row.Handle); err != nil {
			remaining++
			continue
		}
		cleared++
	}
	return cleared, remaining, nil
}

// Pending lists stranded assets, oldest first.
func (c *AssetCleanup) Pending(ctx context.Context) ([]models.StrandedAsset, error) {
	var rows []models.StrandedAsset
	err := c.db.WithContext(ctx).Order("created_at").Find(&rows).Error
	return rows, err
}
