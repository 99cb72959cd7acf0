package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/models"
	"github.com/kedarnathdev/protectedData/internal/repositories"
	"github.com/kedarnathdev/protectedData/internal/storage"
	"github.com/kedarnathdev/protectedData/internal/utils"
	"gorm.io/gorm"
)

// guard builds the storage guard from live config so tests can point the
// upload root elsewhere.
func guard() *storage.Guard {
	return storage.NewGuard(config.Envs.UploadDir, config.Envs.MaxUploadMB<<20)
}

// Validation runs as an ordered pipeline before any side effect; each step
// returns ok plus a client-safe message.

func validateDropPassword(password string) (bool, string) {
	if len(password) < 4 {
		return false, "Password must be at least 4 characters long"
	}
	if len(password) > 128 {
		return false, "Password must be less than 128 characters"
	}
	return true, ""
}

func validateTextContent(text string) (bool, string) {
	n := utf8.RuneCountInString(text)
	if n < 1 {
		return false, "Text content is required"
	}
	if n > 10000 {
		return false, "Text content must be at most 10000 characters"
	}
	return true, ""
}

func validateLabel(label string) (bool, string) {
	if utf8.RuneCountInString(label) > 100 {
		return false, "Label must be at most 100 characters"
	}
	return true, ""
}

// DownloadClaims scope a signed token to downloading one drop's file.
type DownloadClaims struct {
	ShortID string `json:"shortId"`
	Scope   string `json:"scope"`
	jwt.RegisteredClaims
}

const downloadScope = "download"
const downloadTokenTTL = 15 * time.Minute

func signDownloadToken(shortID string) (string, error) {
	claims := &DownloadClaims{
		ShortID: shortID,
		Scope:   downloadScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(downloadTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Envs.JWTSecret))
}

// verifyDownloadToken checks a signed download token for the given drop.
// Any failure just reports false: the caller falls back to treating the
// value as a plaintext password for compatibility with older links.
func verifyDownloadToken(tokenStr, shortID string) bool {
	claims := &DownloadClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Envs.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	return claims.Scope == downloadScope && claims.ShortID == shortID
}

// mirrorUpload copies a freshly persisted file to the object-store mirror.
// Best effort: local disk is authoritative, failures are only logged.
func mirrorUpload(r *http.Request, storageName string) {
	if !repositories.MirrorEnabled() {
		return
	}
	f, _, err := guard().Open(storageName)
	if err != nil {
		log.Println("Mirror read failed:", err)
		return
	}
	defer f.Close()
	if err := repositories.MirrorPut(r.Context(), storageName, f); err != nil {
		log.Println("Mirror upload failed:", err)
	}
}

func mirrorRemove(r *http.Request, storageName string) {
	if !repositories.MirrorEnabled() {
		return
	}
	if err := repositories.MirrorDelete(r.Context(), storageName); err != nil {
		log.Println("Mirror delete failed:", err)
	}
}

// POST /api/shorten
// CreateDrop godoc
// @Summary Create a password-protected drop
// @Description Stores text (plus an optional file) behind a password and returns a short id and serial number.
// @Tags Drops
// @Accept multipart/form-data
// @Produce json
// @Param password formData string true "Access password (4-128 chars)"
// @Param textContent formData string true "Protected text (1-10000 chars)"
// @Param label formData string false "Operator-facing label (max 100 chars)"
// @Param file formData file false "Optional attachment"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/shorten [post]
func CreateDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	maxBytes := config.Envs.MaxUploadMB << 20
	// Cut oversize bodies off at the transport instead of spooling them to
	// temp disk first; the extra megabyte covers multipart framing and the
	// text fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid upload form",
			Error:   utils.ErrValidation,
		})
		return
	}

	password := r.FormValue("password")
	textContent := r.FormValue("textContent")
	label := r.FormValue("label")

	for _, check := range []func() (bool, string){
		func() (bool, string) { return validateDropPassword(password) },
		func() (bool, string) { return validateTextContent(textContent) },
		func() (bool, string) { return validateLabel(label) },
	} {
		if ok, msg := check(); !ok {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: msg,
				Error:   utils.ErrValidation,
			})
			return
		}
	}

	// Check the attachment before anything is hashed or written.
	var fileName, storageName *string
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()

		if err := guard().Accept(header.Filename, header.Size); err != nil {
			var rejected *storage.RejectedError
			if errors.As(err, &rejected) {
				utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
					Success: false,
					Message: rejected.Reason,
					Error:   utils.ErrStorageRejected,
				})
				return
			}
			internalError(w, "Upload check failed", err)
			return
		}

		name, err := utils.NewStorageName(header.Filename)
		if err != nil {
			internalError(w, "Failed to name stored file", err)
			return
		}
		display := header.Filename
		fileName = &display
		storageName = &name
	} else if err != http.ErrMissingFile {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file upload",
			Error:   utils.ErrValidation,
		})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		internalError(w, "Failed to hash password", err)
		return
	}

	serial, err := repositories.NextSerial(repositories.DB)
	if err != nil {
		internalError(w, "Failed to assign serial number", err)
		return
	}

	if storageName != nil {
		if _, err := guard().Persist(file, *storageName); err != nil {
			internalError(w, "Failed to store file", err)
			return
		}
	}

	// A duplicate short id surfaces as a unique-constraint violation; the
	// store is the collision backstop, so just regenerate and retry.
	var drop models.Drop
	createErr := errors.New("no attempt made")
	for attempt := 0; attempt < 3 && createErr != nil; attempt++ {
		shortID, err := utils.NewShortID()
		if err != nil {
			createErr = err
			break
		}
		drop = models.Drop{
			ID:              uuid.New(),
			ShortID:         shortID,
			SerialNumber:    serial,
			PasswordHash:    hash,
			TextContent:     textContent,
			Label:           label,
			FileName:        fileName,
			FileStorageName: storageName,
		}
		createErr = repositories.DB.Create(&drop).Error
		if createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if createErr != nil {
		// Never leave a record-less file behind when the client got an error.
		if storageName != nil {
			_ = guard().Remove(*storageName)
		}
		internalError(w, "Failed to save drop", createErr)
		return
	}

	if storageName != nil {
		mirrorUpload(r, *storageName)
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Drop created successfully",
		Data: map[string]any{
			"shortId":      drop.ShortID,
			"serialNumber": drop.SerialNumber,
			"shortUrl":     fmt.Sprintf("%s/%s", config.Envs.BaseURL, drop.ShortID),
		},
	})
}

// GET /api/search?serial=N
// SearchBySerial godoc
// @Summary Look up a drop by serial number
// @Description Returns the short id and label for a serial number. Never discloses content or hashes.
// @Tags Drops
// @Produce json
// @Param serial query int true "Serial number"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/search [get]
func SearchBySerial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	serial, err := strconv.ParseInt(r.URL.Query().Get("serial"), 10, 64)
	if err != nil || serial <= 0 {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid serial number",
			Error:   utils.ErrValidation,
		})
		return
	}

	var drop models.Drop
	err = repositories.DB.Where("serial_number = ?", serial).First(&drop).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "No drop with that serial number",
			Error:   utils.ErrNotFound,
		})
		return
	default:
		internalError(w, "Database error", err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Drop found",
		Data: map[string]any{
			"shortId":      drop.ShortID,
			"serialNumber": drop.SerialNumber,
			"label":        drop.Label,
		},
	})
}

// POST /api/{shortId}/verify
// VerifyDrop godoc
// @Summary Unlock a drop with its password
// @Description Returns the protected text and, when a file is attached, a short-lived download URL.
// @Tags Drops
// @Accept json
// @Produce json
// @Param shortId path string true "Short id"
// @Param body body object true "JSON body with password"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/{shortId}/verify [post]
func VerifyDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	shortID := r.PathValue("shortId")

	var input struct {
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
			Error:   utils.ErrValidation,
		})
		return
	}

	drop, ok := findDrop(w, shortID)
	if !ok {
		return
	}

	if !utils.CheckPassword(input.Password, drop.PasswordHash) {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Wrong password",
			Error:   utils.ErrWrongPassword,
		})
		return
	}

	data := map[string]any{
		"textContent": drop.TextContent,
		"hasFile":     drop.HasFile(),
		"fileName":    drop.FileName,
	}
	if drop.HasFile() {
		token, err := signDownloadToken(drop.ShortID)
		if err != nil {
			internalError(w, "Failed to create download token", err)
			return
		}
		data["downloadUrl"] = fmt.Sprintf("%s/api/%s/download?token=%s",
			config.Envs.BaseURL, drop.ShortID, token)
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Password verified",
		Data:    data,
	})
}

// GET /api/{shortId}/download?token=...
// DownloadDrop godoc
// @Summary Download a drop's attachment
// @Description Streams the stored file. The token is either the signed download token from verify, or the drop password itself (legacy links).
// @Tags Drops
// @Produce octet-stream
// @Param shortId path string true "Short id"
// @Param token query string true "Download token"
// @Success 200 {file} binary
// @Failure 401 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/{shortId}/download [get]
func DownloadDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	shortID := r.PathValue("shortId")
	token := r.URL.Query().Get("token")

	drop, ok := findDrop(w, shortID)
	if !ok {
		return
	}

	if !drop.HasFile() {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "No file attached to this drop",
			Error:   utils.ErrNotFound,
		})
		return
	}

	// Signed token first, then the legacy password-as-token form. Either
	// way a failure is a plain 401 with no counter change.
	authorized := token != "" &&
		(verifyDownloadToken(token, drop.ShortID) || utils.CheckPassword(token, drop.PasswordHash))
	if !authorized {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
			Error:   utils.ErrUnauthorized,
		})
		return
	}

	f, size, err := guard().Open(*drop.FileStorageName)
	if err != nil {
		internalError(w, "Failed to open stored file", err)
		return
	}
	defer f.Close()

	// In-place increment so concurrent downloads don't lose updates.
	err = repositories.DB.Model(&models.Drop{}).
		Where("id = ?", drop.ID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
	if err != nil {
		internalError(w, "Failed to record download", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", *drop.FileName))
	if _, err := io.Copy(w, f); err != nil {
		log.Println("Download stream interrupted:", err)
	}
}

// GET /{shortId} serves the verification page shell, or the 404 page for
// unknown ids. The page itself talks to the JSON API.
func DropPage(w http.ResponseWriter, r *http.Request) {
	shortID := r.PathValue("shortId")

	var drop models.Drop
	err := repositories.DB.Where("short_id = ?", shortID).First(&drop).Error
	if err != nil {
		page, readErr := os.ReadFile("web/static/404.html")
		if readErr != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(page)
		return
	}

	http.ServeFile(w, r, "web/static/verify.html")
}

// findDrop loads a drop by short id, writing the 404/500 response itself
// when the lookup fails.
func findDrop(w http.ResponseWriter, shortID string) (*models.Drop, bool) {
	var drop models.Drop
	err := repositories.DB.Where("short_id = ?", shortID).First(&drop).Error
	switch {
	case err == nil:
		return &drop, true
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Drop not found",
			Error:   utils.ErrNotFound,
		})
		return nil, false
	default:
		internalError(w, "Database error", err)
		return nil, false
	}
}

// internalError logs the real cause and returns a generic message; store
// internals never reach clients.
func internalError(w http.ResponseWriter, msg string, err error) {
	log.Println(msg+":", err)
	utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
		Success: false,
		Message: msg,
		Error:   utils.ErrInternal,
	})
}
