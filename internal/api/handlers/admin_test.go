package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/models"
	"github.com/kedarnathdev/protectedData/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTestAdmin(t *testing.T) {
	t.Helper()
	require.NoError(t, repositories.SeedAdmin(repositories.DB, "admin", "sup3rsecret"))
}

func adminLogin(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	AdminLogin(rec, req)
	return rec
}

func TestAdminLogin(t *testing.T) {
	setupTest(t)
	seedTestAdmin(t)

	rec := adminLogin(t, "admin", "sup3rsecret")
	require.Equal(t, http.StatusOK, rec.Code)

	data := payloadData(t, decodePayload(t, rec))
	tokenStr, _ := data["token"].(string)
	require.NotEmpty(t, tokenStr)

	// Token carries the admin identity and a 24h expiry
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Envs.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "admin", claims.Username)
	assert.NotEmpty(t, claims.AdminID)
}

func TestAdminLoginInvalidCredentials(t *testing.T) {
	setupTest(t)
	seedTestAdmin(t)

	for _, tc := range [][2]string{
		{"admin", "wrongpass"},
		{"noone", "sup3rsecret"},
	} {
		rec := adminLogin(t, tc[0], tc[1])
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", decodePayload(t, rec).Error)
	}
}

func TestAdminListDrops(t *testing.T) {
	setupTest(t)

	_, _ = createDrop(t, map[string]string{"password": "abcd", "textContent": "first"}, "", nil)
	_, _ = createDrop(t, map[string]string{"password": "efgh", "textContent": "second"}, "", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/urls", nil)
	rec := httptest.NewRecorder()
	AdminListDrops(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := payloadData(t, decodePayload(t, rec))
	urls, ok := data["urls"].([]any)
	require.True(t, ok)
	assert.Len(t, urls, 2)

	// The hash must never be serialized
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func adminUpdate(t *testing.T, id string, fields map[string]string, fileName string, fileContent []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, fileName, fileContent)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/urls/"+id, body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	AdminUpdateDrop(rec, req)
	return rec
}

func dropByShortID(t *testing.T, shortID string) models.Drop {
	t.Helper()
	var drop models.Drop
	require.NoError(t, repositories.DB.Where("short_id = ?", shortID).First(&drop).Error)
	return drop
}

func TestAdminUpdatePartialFields(t *testing.T) {
	setupTest(t)

	_, data := createDrop(t, map[string]string{
		"password":    "abcd",
		"textContent": "original",
		"label":       "keep-me",
	}, "", nil)
	drop := dropByShortID(t, data["shortId"].(string))

	// Only textContent present: label stays untouched
	rec := adminUpdate(t, drop.ID.String(), map[string]string{"textContent": "edited"}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := dropByShortID(t, drop.ShortID)
	assert.Equal(t, "edited", updated.TextContent)
	assert.Equal(t, "keep-me", updated.Label)

	// Explicit empty label clears it
	rec = adminUpdate(t, drop.ID.String(), map[string]string{"label": ""}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dropByShortID(t, drop.ShortID).Label)

	// Invalid changed field is rejected with the creation rules
	rec = adminUpdate(t, drop.ID.String(), map[string]string{"textContent": ""}, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpdateReplaceAndRemoveFile(t *testing.T) {
	setupTest(t)

	_, data := createDrop(t, map[string]string{
		"password":    "abcd",
		"textContent": "with file",
	}, "old.txt", []byte("old bytes"))
	drop := dropByShortID(t, data["shortId"].(string))
	require.NotNil(t, drop.FileStorageName)
	oldStorageName := *drop.FileStorageName

	// Replace the attachment
	rec := adminUpdate(t, drop.ID.String(), nil, "new.csv", []byte("a,b\n1,2\n"))
	require.Equal(t, http.StatusOK, rec.Code)

	updated := dropByShortID(t, drop.ShortID)
	require.NotNil(t, updated.FileName)
	assert.Equal(t, "new.csv", *updated.FileName)
	assert.NotEqual(t, oldStorageName, *updated.FileStorageName)

	// The replaced file is gone from disk
	entries, err := os.ReadDir(config.Envs.UploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *updated.FileStorageName, entries[0].Name())

	// Remove the attachment: the name pair clears together
	rec = adminUpdate(t, drop.ID.String(), map[string]string{"removeFile": "true"}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	final := dropByShortID(t, drop.ShortID)
	assert.Nil(t, final.FileName)
	assert.Nil(t, final.FileStorageName)
}

func TestAdminUpdateRejectsDisallowedFile(t *testing.T) {
	setupTest(t)

	_, data := createDrop(t, map[string]string{
		"password":    "abcd",
		"textContent": "x",
	}, "", nil)
	drop := dropByShortID(t, data["shortId"].(string))

	rec := adminUpdate(t, drop.ID.String(), nil, "shell.sh", []byte("#!/bin/sh"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "storage_rejected", decodePayload(t, rec).Error)
}

func adminDelete(t *testing.T, id string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/urls/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	AdminDeleteDrop(rec, req)
	return rec
}

func TestAdminDelete(t *testing.T) {
	setupTest(t)

	_, data := createDrop(t, map[string]string{
		"password":    "abcd",
		"textContent": "doomed",
	}, "doc.pdf", []byte("%PDF-1.4"))
	drop := dropByShortID(t, data["shortId"].(string))

	rec := adminDelete(t, drop.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	// Record and file are both gone
	var count int64
	repositories.DB.Model(&models.Drop{}).Count(&count)
	assert.Zero(t, count)

	entries, err := os.ReadDir(config.Envs.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Deleting the same id again is 404, not an error
	rec = adminDelete(t, drop.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodePayload(t, rec).Error)
}

func TestAdminDeleteInvalidID(t *testing.T) {
	setupTest(t)

	rec := adminDelete(t, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
