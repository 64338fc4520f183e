package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"peakform/training-engine/internal/domain"
	"peakform/training-engine/internal/engine"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler exposes the engine's session-manager operations.
type SessionHandler struct {
	eng *engine.Engine
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(eng *engine.Engine) *SessionHandler {
	return &SessionHandler{eng: eng}
}

type EnrollRequest struct {
	ProgramID      string                `json:"programId" binding:"required"`
	StartingWeight float64               `json:"startingWeight" binding:"required"`
	StartDate      *time.Time            `json:"startDate"`
	Customization  *domain.Customization `json:"customization"`
}

type PauseRequest struct {
	Reason string `json:"reason"`
}

type RecordWorkoutRequest struct {
	WorkoutDate   time.Time `json:"workoutDate" binding:"required"`
	WeekNumber    int       `json:"weekNumber" binding:"required,min=1"`
	WorkoutNumber int       `json:"workoutNumber" binding:"required,min=1"`
	Weight        float64   `json:"weight"`
	Distance      float64   `json:"distance"`
	DurationSec   int       `json:"durationSec" binding:"required,min=1"`
	Notes         string    `json:"notes"`
	AvgHeartRate  *int      `json:"avgHeartRate"`
	AvgPace       *float64  `json:"avgPace"`
}

// Enroll starts the caller on a program.
func (h *SessionHandler) Enroll(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID")
		return
	}

	startDate := time.Time{}
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	session, err := h.eng.Enroll(c.Request.Context(), userID, programID, req.StartingWeight, req.Customization, startDate)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidWeight):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrAlreadyEnrolled):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, engine.ErrTooManyActivePrograms):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to enroll")
		}
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ListSessions returns the caller's active sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	sessions, err := h.eng.ActiveSessions(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Pause suspends a session owned by the caller.
func (h *SessionHandler) Pause(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req PauseRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	if err := h.eng.Pause(c.Request.Context(), c.Param("id"), userID, req.Reason); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Resume reactivates a paused session owned by the caller.
func (h *SessionHandler) Resume(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.eng.Resume(c.Request.Context(), c.Param("id"), userID); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete finishes one of the caller's programs and returns the snapshot.
func (h *SessionHandler) Complete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	completed, err := h.eng.CompleteProgram(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if completed != nil {
			// Enrollment is completed; only the recommendation refresh failed.
			c.JSON(http.StatusOK, completed)
			return
		}
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, completed)
}

// Cancel deletes one of the caller's enrollments and drops its session.
func (h *SessionHandler) Cancel(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.eng.CancelEnrollment(c.Request.Context(), c.Param("id"), userID); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordWorkout appends a completed workout to one of the caller's sessions.
func (h *SessionHandler) RecordWorkout(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req RecordWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	completed := domain.CompletedWorkout{
		WorkoutDate:   req.WorkoutDate,
		WeekNumber:    req.WeekNumber,
		WorkoutNumber: req.WorkoutNumber,
		Weight:        req.Weight,
		Distance:      req.Distance,
		Duration:      time.Duration(req.DurationSec) * time.Second,
		Notes:         req.Notes,
		AvgHeartRate:  req.AvgHeartRate,
		AvgPace:       req.AvgPace,
	}

	session, err := h.eng.RecordWorkout(c.Request.Context(), c.Param("id"), userID, completed)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// NextWorkout returns the earliest upcoming workout of a session.
func (h *SessionHandler) NextWorkout(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	next, err := h.eng.GetNextWorkout(c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, engine.ErrNoUpcomingWorkout) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, next)
}

// TodaysWorkouts returns today's workouts across the caller's sessions.
func (h *SessionHandler) TodaysWorkouts(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	workouts, err := h.eng.GetTodaysWorkouts(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list workouts")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// Analytics returns the caller's progress summary.
func (h *SessionHandler) Analytics(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	analytics, err := h.eng.GetProgressAnalytics(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func sessionError(c *gin.Context, err error) {
	if errors.Is(err, engine.ErrSessionNotFound) {
		abortWithError(c, http.StatusNotFound, err.Error())
		return
	}
	abortWithError(c, http.StatusInternalServerError, "Operation failed")
}
