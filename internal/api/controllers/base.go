package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"ruralsite/internal/api/middleware"
	"ruralsite/internal/apperrors"
	"ruralsite/internal/models"
	"ruralsite/internal/services"
	"ruralsite/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ContentController exposes one content type over HTTP.
type ContentController[T any, PT services.ContentPtr[T]] struct {
	service *services.ContentService[T, PT]
}

// NewContentController creates a new content controller
func NewContentController[T any, PT services.ContentPtr[T]](service *services.ContentService[T, PT]) *ContentController[T, PT] {
	return &ContentController[T, PT]{service: service}
}

// Page is the envelope of list responses.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func pagination(ctx echo.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// List returns active records. It never fails on a database outage.
func (c *ContentController[T, PT]) List(ctx echo.Context) error {
	page, limit := pagination(ctx)
	items, total, err := c.service.ListPublic(ctx.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, Page[T]{Data: items, Total: total, Page: page, Limit: limit})
}

// Get returns one active record by id, or by slug where the type has one.
func (c *ContentController[T, PT]) Get(ctx echo.Context) error {
	item, err := c.service.GetPublic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

// AdminList returns every record, active or not.
func (c *ContentController[T, PT]) AdminList(ctx echo.Context) error {
	page, limit := pagination(ctx)
	items, total, err := c.service.ListAll(ctx.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, Page[T]{Data: items, Total: total, Page: page, Limit: limit})
}

// AdminGet returns any record by id.
func (c *ContentController[T, PT]) AdminGet(ctx echo.Context) error {
	item, err := c.service.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

// Create handles creation of new entities
func (c *ContentController[T, PT]) Create(ctx echo.Context) error {
	fields, upload, err := ReadContent(ctx, PT(new(T)).AssetField())
	if err != nil {
		return err
	}
	item, err := c.service.Create(ctx.Request().Context(), middleware.Actor(ctx), fields, upload)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, item)
}

// Update merges the supplied fields into an existing entity
func (c *ContentController[T, PT]) Update(ctx echo.Context) error {
	fields, upload, err := ReadContent(ctx, PT(new(T)).AssetField())
	if err != nil {
		return err
	}
	item, err := c.service.Update(ctx.Request().Context(), middleware.Actor(ctx), ctx.Param("id"), fields, upload)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

// Delete handles deletion of an entity
func (c *ContentController[T, PT]) Delete(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := c.service.Delete(ctx.Request().Context(), middleware.Actor(ctx), id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"message": PT(new(T)).ResourceName() + " deleted",
		"id":      id,
	})
}

// ReadContent extracts the supplied fields and, for multipart requests, the
// file part named assetField. Only keys present in the request end up in
// fields.
func ReadContent(ctx echo.Context, assetField string) (models.Fields, *storage.Upload, error) {
	req := ctx.Request()
	contentType := strings.ToLower(req.Header.Get(echo.HeaderContentType))

	switch {
	case strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, nil, apperrors.Invalid("_", "invalid multipart body")
		}
		fields := models.Fields{}
		for key, values := range form.Value {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		files := form.File[assetField]
		if len(files) == 0 {
			return fields, nil, nil
		}
		upload, err := readFile(assetField, files[0])
		if err != nil {
			return nil, nil, err
		}
		return fields, upload, nil

	case strings.HasPrefix(contentType, echo.MIMEApplicationForm):
		params, err := ctx.FormParams()
		if err != nil {
			return nil, nil, apperrors.Invalid("_", "invalid form body")
		}
		fields := models.Fields{}
		for key, values := range params {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		return fields, nil, nil

	default:
		fields := models.Fields{}
		if req.ContentLength == 0 {
			return fields, nil, nil
		}
		// Bodies without a content type are read as JSON.
		if contentType == "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		if err := (&echo.DefaultBinder{}).BindBody(ctx, &fields); err != nil {
			return nil, nil, apperrors.Invalid("_", "invalid JSON body")
		}
		return fields, nil, nil
	}
}

func readFile(field string, header *multipart.FileHeader) (*storage.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.Invalid(field, field+" could not be read")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.Invalid(field, field+" could not be read")
	}
	return &storage.Upload{
		Field:       field,
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
