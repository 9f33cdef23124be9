package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/apperrors"
)

func newContext(method, contentType, body string) echo.Context {
	req := httptest.NewRequest(method, "/api/v1/products/x", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestReadContentJSONKeepsOnlySuppliedKeys(t *testing.T) {
	c := newContext(http.MethodPatch, echo.MIMEApplicationJSONCharsetUTF8, `{"website":"https://valley.example","version":2}`)

	fields, upload, err := ReadContent(c, "image")
	require.NoError(t, err)
	assert.Nil(t, upload)
	assert.Len(t, fields, 2)
	assert.Equal(t, "https://valley.example", fields["website"])
	assert.EqualValues(t, 2, fields["version"])
	assert.NotContains(t, fields, "image")
}

func TestReadContentWithoutContentTypeIsJSON(t *testing.T) {
	c := newContext(http.MethodPut, "", `{"name":"Seeds"}`)

	fields, _, err := ReadContent(c, "image")
	require.NoError(t, err)
	assert.Equal(t, "Seeds", fields["name"])
}

func TestReadContentEmptyBody(t *testing.T) {
	c := newContext(http.MethodPatch, echo.MIMEApplicationJSON, "")

	fields, upload, err := ReadContent(c, "image")
	require.NoError(t, err)
	assert.Nil(t, upload)
	assert.Empty(t, fields)
}

func TestReadContentRejectsMalformedJSON(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationJSON, `{"name":`)

	_, _, err := ReadContent(c, "image")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReadContentURLEncodedForm(t *testing.T) {
	c := newContext(http.MethodPost, echo.MIMEApplicationForm, "name=Seeds&price=10")

	fields, upload, err := ReadContent(c, "image")
	require.NoError(t, err)
	assert.Nil(t, upload)
	assert.Equal(t, "Seeds", fields["name"])
	assert.Equal(t, "10", fields["price"])
}
