package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/kedarnathdev/protectedData/internal/models"
	"github.com/kedarnathdev/protectedData/internal/repositories"
	"github.com/kedarnathdev/protectedData/internal/storage"
	"github.com/kedarnathdev/protectedData/internal/utils"
	"gorm.io/gorm"
)

// Claims carried by admin session tokens.
type Claims struct {
	AdminID  string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

const adminSessionTTL = 24 * time.Hour

// POST /api/admin/login
// AdminLogin godoc
// @Summary Log in as the administrator
// @Description Verifies admin credentials and returns a bearer token valid for 24 hours.
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body object true "JSON body with username and password"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/admin/login [post]
func AdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil || input.Username == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
			Error:   utils.ErrValidation,
		})
		return
	}

	var admin models.AdminUser
	err := repositories.DB.Where("username = ?", input.Username).First(&admin).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		invalidCredentials(w)
		return
	default:
		internalError(w, "Database error", err)
		return
	}

	if !utils.CheckPassword(input.Password, admin.PasswordHash) {
		invalidCredentials(w)
		return
	}

	expiration := time.Now().Add(adminSessionTTL)
	claims := &Claims{
		AdminID:  admin.ID.String(),
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.Envs.JWTSecret))
	if err != nil {
		internalError(w, "Failed to create token", err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data: map[string]any{
			"token": tokenString,
		},
	})
}

func invalidCredentials(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Invalid credentials",
		Error:   utils.ErrInvalidCredentials,
	})
}

// GET /api/admin/urls
// AdminListDrops godoc
// @Summary List all drops
// @Description Returns every drop record. Password hashes are never serialized.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Payload
// @Router /api/admin/urls [get]
func AdminListDrops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	var drops []models.Drop
	if err := repositories.DB.Order("serial_number").Find(&drops).Error; err != nil {
		internalError(w, "Database error", err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Drops retrieved successfully",
		Data: map[string]any{
			"urls": drops,
		},
	})
}

// dropUpdate is the partial-update payload: each field applies only when
// present in the form, so "absent" and "set to empty" stay distinguishable.
type dropUpdate struct {
	Label       *string
	TextContent *string
	RemoveFile  bool
}

func parseDropUpdate(r *http.Request) dropUpdate {
	var upd dropUpdate
	if r.MultipartForm == nil {
		return upd
	}
	if v, ok := r.MultipartForm.Value["label"]; ok && len(v) > 0 {
		upd.Label = &v[0]
	}
	if v, ok := r.MultipartForm.Value["textContent"]; ok && len(v) > 0 {
		upd.TextContent = &v[0]
	}
	if v, ok := r.MultipartForm.Value["removeFile"]; ok && len(v) > 0 {
		upd.RemoveFile = v[0] == "true" || v[0] == "1"
	}
	return upd
}

// PUT /api/admin/urls/{id}
// AdminUpdateDrop godoc
// @Summary Update a drop
// @Description Applies the provided fields only; a new file replaces the old attachment, removeFile clears it.
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Drop id"
// @Param label formData string false "New label"
// @Param textContent formData string false "New text content"
// @Param file formData file false "Replacement attachment"
// @Param removeFile formData bool false "Remove the attachment"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/admin/urls/{id} [put]
func AdminUpdateDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	drop, ok := findDropByID(w, r.PathValue("id"))
	if !ok {
		return
	}

	maxBytes := config.Envs.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid upload form",
			Error:   utils.ErrValidation,
		})
		return
	}

	upd := parseDropUpdate(r)

	// Changed fields follow the same rules as creation.
	if upd.TextContent != nil {
		if ok, msg := validateTextContent(*upd.TextContent); !ok {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: msg,
				Error:   utils.ErrValidation,
			})
			return
		}
		drop.TextContent = *upd.TextContent
	}
	if upd.Label != nil {
		if ok, msg := validateLabel(*upd.Label); !ok {
			utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
				Success: false,
				Message: msg,
				Error:   utils.ErrValidation,
			})
			return
		}
		drop.Label = *upd.Label
	}

	oldStorageName := drop.FileStorageName

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
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
		if _, err := guard().Persist(file, name); err != nil {
			internalError(w, "Failed to store file", err)
			return
		}
		display := header.Filename
		drop.FileName = &display
		drop.FileStorageName = &name

	case err == http.ErrMissingFile:
		if upd.RemoveFile {
			drop.FileName = nil
			drop.FileStorageName = nil
		}

	default:
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid file upload",
			Error:   utils.ErrValidation,
		})
		return
	}

	newFile := drop.FileStorageName != nil &&
		(oldStorageName == nil || *drop.FileStorageName != *oldStorageName)
	oldGone := oldStorageName != nil &&
		(drop.FileStorageName == nil || *drop.FileStorageName != *oldStorageName)

	if err := repositories.DB.Save(drop).Error; err != nil {
		// Keep the record authoritative: drop the new file, keep the old.
		if newFile {
			_ = guard().Remove(*drop.FileStorageName)
		}
		internalError(w, "Failed to update drop", err)
		return
	}

	if oldGone {
		_ = guard().Remove(*oldStorageName)
		mirrorRemove(r, *oldStorageName)
	}
	if newFile {
		mirrorUpload(r, *drop.FileStorageName)
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Drop updated successfully",
		Data: map[string]any{
			"url": drop,
		},
	})
}

// DELETE /api/admin/urls/{id}
// AdminDeleteDrop godoc
// @Summary Delete a drop
// @Description Removes the record and its stored file. Deleting an already-deleted id returns 404.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Drop id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/admin/urls/{id} [delete]
func AdminDeleteDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.JSONResponse(w, http.StatusMethodNotAllowed, utils.Payload{
			Success: false,
			Message: "Method not allowed",
		})
		return
	}

	drop, ok := findDropByID(w, r.PathValue("id"))
	if !ok {
		return
	}

	if err := repositories.DB.Delete(&models.Drop{}, "id = ?", drop.ID).Error; err != nil {
		internalError(w, "Failed to delete drop", err)
		return
	}

	// Best effort: an already-gone file must not fail the delete.
	if drop.FileStorageName != nil {
		_ = guard().Remove(*drop.FileStorageName)
		mirrorRemove(r, *drop.FileStorageName)
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Drop deleted successfully",
	})
}

func findDropByID(w http.ResponseWriter, idStr string) (*models.Drop, bool) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid drop id",
			Error:   utils.ErrValidation,
		})
		return nil, false
	}

	var drop models.Drop
	err = repositories.DB.Where("id = ?", id).First(&drop).Error
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
