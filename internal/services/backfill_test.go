package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/models"
	"ruralsite/internal/storage/storagetest"
)

func TestBackfillHandles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	price := 10.0

	legacy := &models.Product{Name: "Legacy", Price: &price, Image: models.ManagedAsset{URL: storagetest.BaseURL + "/products/old.png"}}
	foreign := &models.Product{Name: "Foreign", Price: &price, Image: models.ManagedAsset{URL: "https://elsewhere.example/x.png"}}
	current := &models.Product{Name: "Current", Price: &price, Image: models.ManagedAsset{URL: storagetest.BaseURL + "/products/new.png", Handle: "products/new.png"}}
	job := &models.JobPosting{Title: "Field officer", Location: "Pune", Description: "...", Document: models.ManagedAsset{URL: storagetest.BaseURL + "/jobs/jd.pdf"}}
	for _, v := range []interface{}{legacy, foreign, current, job} {
		require.NoError(t, f.db.Create(v).Error)
	}

	reports, err := BackfillHandles(ctx, f.db, storagetest.BaseURL, true)
	require.NoError(t, err)
	byTable := map[string]BackfillReport{}
	for _, r := range reports {
		byTable[r.Table] = r
	}
	assert.Equal(t, 2, byTable["products"].Missing)
	assert.Equal(t, 1, byTable["products"].Filled)
	assert.Equal(t, []string{foreign.ID}, byTable["products"].Foreign)

	var reloaded models.Product
	require.NoError(t, f.db.First(&reloaded, "id = ?", legacy.ID).Error)
	assert.Empty(t, reloaded.Image.Handle, "dry run writes nothing")

	_, err = BackfillHandles(ctx, f.db, storagetest.BaseURL, false)
	require.NoError(t, err)

	require.NoError(t, f.db.First(&reloaded, "id = ?", legacy.ID).Error)
	assert.Equal(t, "products/old.png", reloaded.Image.Handle)
	require.NoError(t, f.db.First(&reloaded, "id = ?", foreign.ID).Error)
	assert.Empty(t, reloaded.Image.Handle)

	var reloadedJob models.JobPosting
	require.NoError(t, f.db.First(&reloadedJob, "id = ?", job.ID).Error)
	assert.Equal(t, "jobs/jd.pdf", reloadedJob.Document.Handle)
}
