package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"peakform/training-engine/internal/domain"
	"peakform/training-engine/internal/engine"
	"peakform/training-engine/internal/repository"
	"peakform/training-engine/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler serves the catalog surface: listing, detail with media
// links, coach-side publication, and recommendations.
type ProgramHandler struct {
	programs     repository.ProgramRepository
	eng          *engine.Engine
	mediaStorage storage.MediaStorage
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programs repository.ProgramRepository, eng *engine.Engine, mediaStorage storage.MediaStorage) *ProgramHandler {
	return &ProgramHandler{programs: programs, eng: eng, mediaStorage: mediaStorage}
}

type CreateProgramRequest struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	Difficulty    domain.Difficulty `json:"difficulty" binding:"required,oneof=beginner intermediate advanced elite"`
	Category      domain.Category   `json:"category" binding:"required,oneof=military adventure fitness historical"`
	DurationWeeks int               `json:"durationWeeks" binding:"required,min=1"`
	IsFeatured    bool              `json:"isFeatured"`
}

// ProgramResponse is a catalog entry, optionally with a temporary media URL.
type ProgramResponse struct {
	domain.Program
	MediaURL string `json:"mediaUrl,omitempty"`
}

// ListPrograms returns the full catalog.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programs.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list programs")
		return
	}
	c.JSON(http.StatusOK, programs)
}

// GetProgram returns one catalog entry, with a presigned download URL for
// its briefing asset when one is attached.
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID")
		return
	}

	program, err := h.programs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Program not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load program")
		}
		return
	}

	resp := ProgramResponse{Program: *program}
	if program.MediaKey != "" {
		url, err := h.mediaStorage.GeneratePresignedDownloadURL(c.Request.Context(), program.MediaKey, storage.DefaultPresignedURLExpiry)
		if err == nil {
			resp.MediaURL = url
		}
		// A media URL failure degrades the response, it doesn't fail it.
	}
	c.JSON(http.StatusOK, resp)
}

// CreateProgram publishes a new catalog entry (coach only).
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program := &domain.Program{
		Title:         req.Title,
		Description:   req.Description,
		Difficulty:    req.Difficulty,
		Category:      req.Category,
		DurationWeeks: req.DurationWeeks,
		IsFeatured:    req.IsFeatured,
	}
	id, err := h.programs.Create(c.Request.Context(), program)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create program")
		return
	}
	program.ID = id
	c.JSON(http.StatusCreated, program)
}

type MediaUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type MediaUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// RequestMediaUpload issues a presigned PUT URL for a program's briefing
// asset and records the object key on the catalog entry (coach only).
func (h *ProgramHandler) RequestMediaUpload(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID")
		return
	}

	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if _, err := h.programs.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Program not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load program")
		}
		return
	}

	ext := ""
	if parts := strings.Split(req.ContentType, "/"); len(parts) == 2 {
		ext = parts[1]
	}
	objectKey := path.Join("programs", id.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := h.mediaStorage.GeneratePresignedUploadURL(c.Request.Context(), objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	if err := h.programs.SetMediaKey(c.Request.Context(), id, objectKey); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to link media to program")
		return
	}

	c.JSON(http.StatusOK, MediaUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetRecommendations returns the ranked program shortlist for the caller.
func (h *ProgramHandler) GetRecommendations(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	recommendations, err := h.eng.GenerateRecommendations(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate recommendations")
		return
	}
	c.JSON(http.StatusOK, recommendations)
}
