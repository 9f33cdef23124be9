package services

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleVersion is returned by Save when the row changed since it was read.
var ErrStaleVersion = errors.New("stale version")

// Repository is the gorm access layer for one table. Every call runs under
// the configured query timeout.
type Repository[T any] struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository[T any](db *gorm.DB, timeout time.Duration) *Repository[T] {
	return &Repository[T]{db: db, timeout: timeout}
}

// GormTableName returns the table gorm maps v's type to.
func GormTableName(db *gorm.DB, v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return db.NamingStrategy.TableName(t.Name())
}

// IsID reports whether s can be compared with a uuid primary key. Postgres
// rejects any other string with an error rather than matching nothing.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func (r *Repository[T]) TableName() string {
	var zero T
	return GormTableName(r.db, zero)
}

func (r *Repository[T]) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if r.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return r.db.WithContext(ctx), cancel
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	db, cancel := r.session(ctx)
	defer cancel()
	return db.Create(entity).Error
}

// Get loads a row by id. It returns gorm.ErrRecordNotFound when absent.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	if !IsID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	db, cancel := r.session(ctx)
	defer cancel()

	var entity T
	if err := db.Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetActive loads an active row by id or, when bySlug is set, by slug.
// Strings that are not ids only ever match a slug.
func (r *Repository[T]) GetActive(ctx context.Context, idOrSlug string, bySlug bool) (*T, error) {
	isID := IsID(idOrSlug)
	if !isID && !bySlug {
		return nil, gorm.ErrRecordNotFound
	}

	db, cancel := r.session(ctx)
	defer cancel()

	query := db.Where("active = ?", true)
	switch {
	case isID && bySlug:
		query = query.Where("(id = ? OR slug = ?)", idOrSlug, idOrSlug)
	case isID:
		query = query.Where("id = ?", idOrSlug)
	default:
		query = query.Where("slug = ?", idOrSlug)
	}

	var entity T
	if err := query.First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// List pages through the table, newest first.
func (r *Repository[T]) List(ctx context.Context, page, limit int, activeOnly bool) ([]T, int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var zero T
	query := db.Model(&zero)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entities := make([]T, 0)
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	if err := query.Order("created_at DESC").Order("id").Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// Save writes every column of entity. When expectedVersion is positive the
// write only applies if the stored version still matches it.
func (r *Repository[T]) Save(ctx context.Context, id string, entity *T, expectedVersion int) error {
	if !IsID(id) {
		return gorm.ErrRecordNotFound
	}
	db, cancel := r.session(ctx)
	defer cancel()

	query := db.Model(entity).Where("id = ?", id)
	if expectedVersion > 0 {
		query = query.Where("version = ?", expectedVersion)
	}
	res := query.Select("*").Omit("id", "created_at").Updates(entity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if expectedVersion > 0 {
			return ErrStaleVersion
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row and reports whether it existed.
func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	if !IsID(id) {
		return false, nil
	}
	db, cancel := r.session(ctx)
	defer cancel()

	var zero T
	res := db.Where("id = ?", id).Delete(&zero)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
