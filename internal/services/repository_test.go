package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ruralsite/internal/models"
	"ruralsite/internal/testutil"
)

func TestRepositorySaveChecksVersion(t *testing.T) {
	repo := NewRepository[models.PageSection](testutil.NewDB(t), 0)
	ctx := context.Background()

	section := &models.PageSection{Record: models.Record{Active: true, Version: 1}, Page: "about", Section: "mission", Heading: "Our mission"}
	require.NoError(t, repo.Create(ctx, section))

	section.Heading = "Why we exist"
	section.Version = 2
	require.NoError(t, repo.Save(ctx, section.ID, section, 1))

	section.Heading = "Lost update"
	section.Version = 2
	assert.ErrorIs(t, repo.Save(ctx, section.ID, section, 1), ErrStaleVersion)

	assert.ErrorIs(t, repo.Save(ctx, "missing", &models.PageSection{}, 0), gorm.ErrRecordNotFound)

	stored, err := repo.Get(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, "Why we exist", stored.Heading)
}

func TestRepositoryListPaginates(t *testing.T) {
	repo := NewRepository[models.PageSection](testutil.NewDB(t), 0)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, &models.PageSection{Record: models.Record{Active: name != "two", Version: 1}, Page: "home", Section: name, Heading: name}))
	}

	page, total, err := repo.List(ctx, 1, 2, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	active, total, err := repo.List(ctx, 0, 0, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, active, 2)

	assert.Equal(t, "page_sections", repo.TableName())
}

func TestRepositoryUniquePageSection(t *testing.T) {
	repo := NewRepository[models.PageSection](testutil.NewDB(t), 0)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.PageSection{Record: models.Record{Version: 1}, Page: "about", Section: "team", Heading: "a"}))
	assert.Error(t, repo.Create(ctx, &models.PageSection{Record: models.Record{Version: 1}, Page: "about", Section: "team", Heading: "b"}))
}

// recordSQL captures every statement gorm runs against conn.
func recordSQL(t *testing.T, conn *gorm.DB) *[]string {
	t.Helper()
	var statements []string
	capture := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, conn.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	require.NoError(t, conn.Callback().Delete().After("gorm:delete").Register("test:capture_delete", capture))
	return &statements
}

func TestRepositoryNeverComparesNonIDsWithPrimaryKey(t *testing.T) {
	conn := testutil.NewDB(t)
	posts := NewRepository[models.BlogPost](conn, 0)
	sections := NewRepository[models.PageSection](conn, 0)
	ctx := context.Background()

	post := &models.BlogPost{Record: models.Record{Active: true, Version: 1}, Title: "Solar pumps", Slug: "solar-pumps", Content: "x"}
	require.NoError(t, posts.Create(ctx, post))
	statements := recordSQL(t, conn)

	_, err := sections.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = sections.GetActive(ctx, "not-a-uuid", false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, sections.Save(ctx, "not-a-uuid", &models.PageSection{}, 0), gorm.ErrRecordNotFound)
	deleted, err := sections.Delete(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, *statements)

	found, err := posts.GetActive(ctx, "solar-pumps", true)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)
	require.Len(t, *statements, 1)
	assert.NotContains(t, (*statements)[0], "id =")

	found, err = posts.GetActive(ctx, post.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "solar-pumps", found.Slug)
}
