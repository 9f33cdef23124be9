package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/events"
	"ruralsite/internal/models"
	"ruralsite/internal/storage"
	console "ruralsite/internal/utils/logger"
)

// Validator checks struct tags. *validator.CustomValidator satisfies it.
type Validator interface {
	Validate(i interface{}) error
}

// ContentPtr constrains PT to a pointer to T that is managed content.
type ContentPtr[T any] interface {
	*T
	models.Content
}

// Deps are the collaborators shared by every content service.
type Deps struct {
	DB           *gorm.DB
	Store        storage.AssetStore
	Inspector    storage.Inspector
	Validator    Validator
	Cleanup      *AssetCleanup
	Bus          *events.EventBus
	QueryTimeout time.Duration
}

// ContentService applies authorized mutations to one content type. Callers
// must have passed the authorization gate before any method that writes.
type ContentService[T any, PT ContentPtr[T]] struct {
	repo      *Repository[T]
	store     storage.AssetStore
	inspector storage.Inspector
	validator Validator
	cleanup   *AssetCleanup
	bus       *events.EventBus
	table     string
	log       *console.Logger
}

func NewContentService[T any, PT ContentPtr[T]](deps Deps) *ContentService[T, PT] {
	repo := NewRepository[T](deps.DB, deps.QueryTimeout)
	table := repo.TableName()
	return &ContentService[T, PT]{
		repo:      repo,
		store:     deps.Store,
		inspector: deps.Inspector,
		validator: deps.Validator,
		cleanup:   deps.Cleanup,
		bus:       deps.Bus,
		table:     table,
		log:       console.New(table),
	}
}

// Table is the backing table name, also used in event names.
func (s *ContentService[T, PT]) Table() string {
	return s.table
}

func (s *ContentService[T, PT]) descriptor() PT {
	return PT(new(T))
}

// Create validates fields, uploads the asset if one was sent and inserts the
// record. Nothing is uploaded until validation has passed. If the insert
// fails the fresh upload is deleted again.
func (s *ContentService[T, PT]) Create(ctx context.Context, actor string, fields models.Fields, upload *storage.Upload) (*T, error) {
	entity := s.descriptor()
	record := entity.GetRecord()
	record.Active = true

	if problems := models.Apply(entity, fields); len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}
	record.Version = 1
	if slugged, ok := any(entity).(models.Slugged); ok {
		slugged.EnsureSlug()
	}
	if err := s.validate(entity); err != nil {
		return nil, err
	}
	if upload == nil && entity.AssetRequired() {
		field := entity.AssetField()
		return nil, apperrors.Invalid(field, field+" is required")
	}

	var uploaded *models.ManagedAsset
	if upload != nil {
		asset, err := s.uploadAsset(ctx, entity, upload)
		if err != nil {
			return nil, err
		}
		*entity.Asset() = asset
		uploaded = &asset
	}

	if err := s.repo.Create(ctx, (*T)(entity)); err != nil {
		if uploaded != nil {
			s.discard(ctx, *uploaded, "create rolled back")
		}
		return nil, apperrors.Persistence(s.log.Error("Failed to create %s", err, entity.ResourceName()))
	}

	s.log.Info("Created %s %s", entity.ResourceName(), record.ID)
	s.emit(events.ActionCreated, record.ID, actor)
	return (*T)(entity), nil
}

// Update merges the supplied fields into the stored record. Omitting the
// asset keeps the current one. A new asset replaces the old in this order:
// upload new, persist, delete old. When fields carries a version the write
// only succeeds if nobody else saved in between.
func (s *ContentService[T, PT]) Update(ctx context.Context, actor, id string, fields models.Fields, upload *storage.Upload) (*T, error) {
	expected, hasVersion, err := fields.Version()
	if err != nil {
		return nil, apperrors.Invalid(models.VersionField, "version must be a number")
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	entity := PT(current)
	record := entity.GetRecord()
	if hasVersion && record.Version != expected {
		return nil, apperrors.Conflict(entity.ResourceName())
	}
	loadedVersion := record.Version

	if problems := models.Apply(entity, fields); len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}
	if slugged, ok := any(entity).(models.Slugged); ok {
		slugged.EnsureSlug()
	}
	if err := s.validate(entity); err != nil {
		return nil, err
	}

	previous := *entity.Asset()
	var uploaded *models.ManagedAsset
	if upload != nil {
		asset, err := s.uploadAsset(ctx, entity, upload)
		if err != nil {
			return nil, err
		}
		*entity.Asset() = asset
		uploaded = &asset
	}

	record.Version = loadedVersion + 1
	casVersion := 0
	if hasVersion {
		casVersion = loadedVersion
	}
	if err := s.repo.Save(ctx, id, (*T)(entity), casVersion); err != nil {
		if uploaded != nil {
			s.discard(ctx, *uploaded, "update rolled back")
		}
		switch {
		case errors.Is(err, ErrStaleVersion):
			return nil, apperrors.Conflict(entity.ResourceName())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.NotFound(entity.ResourceName())
		}
		return nil, apperrors.Persistence(s.log.Error("Failed to update %s %s", err, entity.ResourceName(), id))
	}

	if uploaded != nil && !previous.IsZero() && previous.Handle != uploaded.Handle {
		s.discard(ctx, previous, "replaced")
	}

	s.log.Info("Updated %s %s", entity.ResourceName(), id)
	s.emit(events.ActionUpdated, id, actor)
	return (*T)(entity), nil
}

// Delete removes the record and then its asset. A failed asset delete does
// not fail the request; the asset is recorded as stranded instead.
func (s *ContentService[T, PT]) Delete(ctx context.Context, actor, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.lookupError(err)
	}
	entity := PT(current)

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperrors.Persistence(s.log.Error("Failed to delete %s %s", err, entity.ResourceName(), id))
	}
	if !deleted {
		return apperrors.NotFound(entity.ResourceName())
	}

	if asset := *entity.Asset(); !asset.IsZero() {
		s.discard(ctx, asset, "record deleted")
	}

	s.log.Info("Deleted %s %s", entity.ResourceName(), id)
	s.emit(events.ActionDeleted, id, actor)
	return nil
}

// ListPublic returns active records only. A database failure degrades to an
// empty page rather than an error.
func (s *ContentService[T, PT]) ListPublic(ctx context.Context, page, limit int) ([]T, int64, error) {
	items, total, err := s.repo.List(ctx, page, limit, true)
	if err != nil {
		_ = s.log.Error("Failed to list public %s", err, s.table)
		return []T{}, 0, nil
	}
	return items, total, nil
}

// GetPublic finds an active record by id, or by slug for slugged types.
func (s *ContentService[T, PT]) GetPublic(ctx context.Context, idOrSlug string) (*T, error) {
	_, bySlug := any(s.descriptor()).(models.Slugged)
	item, err := s.repo.GetActive(ctx, idOrSlug, bySlug)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return item, nil
}

// Get returns any record by id, active or not.
func (s *ContentService[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return item, nil
}

// ListAll is the admin listing, including inactive records.
func (s *ContentService[T, PT]) ListAll(ctx context.Context, page, limit int) ([]T, int64, error) {
	items, total, err := s.repo.List(ctx, page, limit, false)
	if err != nil {
		return nil, 0, apperrors.Persistence(s.log.Error("Failed to list %s", err, s.table))
	}
	return items, total, nil
}

func (s *ContentService[T, PT]) validate(entity PT) error {
	if s.validator == nil {
		return nil
	}
	err := s.validator.Validate(entity)
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Invalid("_", err.Error())
}

func (s *ContentService[T, PT]) uploadAsset(ctx context.Context, entity PT, upload *storage.Upload) (models.ManagedAsset, error) {
	upload.Field = entity.AssetField()
	inspected, err := s.inspector.Inspect(upload)
	if err != nil {
		return models.ManagedAsset{}, err
	}
	asset, err := s.store.Upload(ctx, inspected, entity.AssetFolder())
	if err != nil {
		return models.ManagedAsset{}, apperrors.Upload(err)
	}
	return asset, nil
}

// discard deletes an asset that no record references any more.
func (s *ContentService[T, PT]) discard(ctx context.Context, asset models.ManagedAsset, reason string) {
	resource := s.descriptor().ResourceName()
	if asset.Handle == "" {
		if s.cleanup != nil {
			s.cleanup.Strand(ctx, asset, resource, reason, nil)
		} else {
			s.log.Warn("Cannot delete %s asset without a handle: %s", resource, asset.URL)
		}
		return
	}
	if err := s.store.Delete(ctx, asset.Handle); err != nil {
		if s.cleanup != nil {
			s.cleanup.Strand(ctx, asset, resource, reason, err)
			return
		}
		_ = s.log.Error("Failed to delete %s asset %s", err, resource, asset.Handle)
	}
}

func (s *ContentService[T, PT]) lookupError(err error) error {
	resource := s.descriptor().ResourceName()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Persistence(s.log.Error("Failed to load %s", err, resource))
}

func (s *ContentService[T, PT]) emit(action, id, actor string) {
	s.bus.Emit(events.Name(s.table, action), events.ContentEvent{
		Table:    s.table,
		Action:   action,
		Resource: s.descriptor().ResourceName(),
		ID:       id,
		Actor:    actor,
	})
}
