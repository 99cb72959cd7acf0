package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/repositories"
	"github.com/kedarnathdev/protectedData/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest points the handlers at a fresh sqlite store and a throwaway
// upload root.
func setupTest(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repositories.Setup(db))
	repositories.DB = db

	config.Envs.UploadDir = t.TempDir()
	config.Envs.MaxUploadMB = 50
	config.Envs.JWTSecret = "test-secret"
	config.Envs.BaseURL = "http://localhost:8080"
}

// multipartBody builds a multipart form with the given fields and an
// optional file part named "file".
func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) utils.Payload {
	t.Helper()

	var payload utils.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func payloadData(t *testing.T, payload utils.Payload) map[string]any {
	t.Helper()

	data, ok := payload.Data.(map[string]any)
	require.True(t, ok, "payload data is not an object: %#v", payload.Data)
	return data
}
