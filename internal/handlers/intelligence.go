package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/guilhermexp/zenith-tasks/internal/database"
	"github.com/guilhermexp/zenith-tasks/internal/middleware"
	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/queue"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
	"github.com/guilhermexp/zenith-tasks/internal/validation"
)

const (
	// MaxAvailableMinutes caps the schedulable time for one day
	MaxAvailableMinutes = 1440
	// MaxPreferencesLength is the maximum length for the preferences free text
	MaxPreferencesLength = 2000
)

// IntelligenceHandler handles analysis requests
type IntelligenceHandler struct {
	engine   *intelligence.Engine
	items    database.ItemRepositoryInterface
	cache    *database.AnalysisCache
	jobQueue queue.JobQueue
}

// NewIntelligenceHandler creates a new intelligence handler
func NewIntelligenceHandler(engine *intelligence.Engine, items database.ItemRepositoryInterface, cache *database.AnalysisCache, jobQueue queue.JobQueue) *IntelligenceHandler {
	return &IntelligenceHandler{
		engine:   engine,
		items:    items,
		cache:    cache,
		jobQueue: jobQueue,
	}
}

// RegisterRoutes registers analysis routes on the given router.
// The router should already have the /intelligence prefix.
func (h *IntelligenceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/prioritize", h.Prioritize).Methods("POST")
	r.HandleFunc("/patterns", h.Patterns).Methods("POST")
	r.HandleFunc("/conflicts", h.Conflicts).Methods("POST")
	r.HandleFunc("/analyze", h.Analyze).Methods("POST")
	r.HandleFunc("/analyze/latest", h.LatestAnalysis).Methods("GET")
}

// PrioritizeAPIRequest represents a prioritization request body
type PrioritizeAPIRequest struct {
	AvailableMinutes int    `json:"available_minutes" validate:"omitempty,min=0,max=1440"`
	Preferences      string `json:"preferences" validate:"omitempty,max=2000"`
}

// ConflictsAPIRequest represents a conflict detection request body
type ConflictsAPIRequest struct {
	NewItemID   *uuid.UUID `json:"new_item_id,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// AnalyzeAPIRequest represents a grouped analysis request body
type AnalyzeAPIRequest struct {
	AvailableMinutes int        `json:"available_minutes" validate:"omitempty,min=0,max=1440"`
	Preferences      string     `json:"preferences" validate:"omitempty,max=2000"`
	NewItemID        *uuid.UUID `json:"new_item_id,omitempty"`
	WindowStart      *time.Time `json:"window_start,omitempty"`
	WindowEnd        *time.Time `json:"window_end,omitempty"`
}

// Prioritize scores and ranks the user's items
func (h *IntelligenceHandler) Prioritize(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req PrioritizeAPIRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Preferences = validation.SanitizeText(req.Preferences)

	ctx := r.Context()
	items, ok := h.loadItems(ctx, w, r, userID)
	if !ok {
		return
	}

	result, err := h.engine.Scorer().Prioritize(ctx, &intelligence.PrioritizeRequest{
		UserID:           userID,
		Items:            items,
		AvailableMinutes: req.AvailableMinutes,
		Preferences:      req.Preferences,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to prioritize items")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Patterns detects behavioral patterns in the user's items
func (h *IntelligenceHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	items, ok := h.loadItems(ctx, w, r, userID)
	if !ok {
		return
	}

	patterns, err := h.engine.Patterns().DetectPatterns(ctx, userID, items)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to detect patterns")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"patterns": patterns})
}

// Conflicts detects scheduling conflicts in the user's items
func (h *IntelligenceHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ConflictsAPIRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	items, ok := h.loadItems(ctx, w, r, userID)
	if !ok {
		return
	}

	newItem, ok := h.resolveNewItem(ctx, w, userID, req.NewItemID)
	if !ok {
		return
	}

	conflicts, err := h.engine.Conflicts().DetectConflicts(ctx, &intelligence.ConflictRequest{
		UserID:      userID,
		Items:       items,
		NewItem:     newItem,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to detect conflicts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// Analyze runs the full grouped analysis. With ?async=1 the run is
// enqueued for the worker instead and the call returns immediately.
func (h *IntelligenceHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req AnalyzeAPIRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Preferences = validation.SanitizeText(req.Preferences)

	ctx := r.Context()

	if r.URL.Query().Get("async") == "1" {
		if h.jobQueue == nil {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Async analysis is not available")
			return
		}
		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		if req.AvailableMinutes > 0 {
			job.Metadata["available_minutes"] = float64(req.AvailableMinutes)
		}
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to enqueue analysis")
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID})
		return
	}

	items, ok := h.loadItems(ctx, w, r, userID)
	if !ok {
		return
	}

	newItem, ok := h.resolveNewItem(ctx, w, userID, req.NewItemID)
	if !ok {
		return
	}

	analysis, err := h.engine.Analyze(ctx, &intelligence.AnalyzeRequest{
		UserID:           userID,
		Items:            items,
		AvailableMinutes: req.AvailableMinutes,
		Preferences:      req.Preferences,
		NewItem:          newItem,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to run analysis")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetLatest(ctx, userID, analysis); err != nil {
			// Caching the snapshot is best effort
			log.Printf("Failed to cache analysis for user %s: %v", userID, err)
		}
	}

	respondJSON(w, http.StatusOK, analysis)
}

// LatestAnalysis returns the most recent cached analysis snapshot
func (h *IntelligenceHandler) LatestAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if h.cache == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No analysis available")
		return
	}

	var analysis intelligence.Analysis
	found, err := h.cache.GetLatest(r.Context(), userID, &analysis)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load analysis")
		return
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No analysis available")
		return
	}

	respondJSON(w, http.StatusOK, &analysis)
}

// loadItems loads the user's item snapshot, honoring an optional ?type= filter
func (h *IntelligenceHandler) loadItems(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) ([]models.Item, bool) {
	var itemType *models.ItemType
	if t := r.URL.Query().Get("type"); t != "" {
		if err := validation.ValidateItemType(t); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return nil, false
		}
		typeEnum := models.ItemType(t)
		itemType = &typeEnum
	}

	items, err := h.items.GetByUserID(ctx, userID, itemType, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve items")
		return nil, false
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, true
}

// resolveNewItem loads the candidate item for conflict checks, enforcing ownership
func (h *IntelligenceHandler) resolveNewItem(ctx context.Context, w http.ResponseWriter, userID uuid.UUID, newItemID *uuid.UUID) (*models.Item, bool) {
	if newItemID == nil {
		return nil, true
	}

	item, err := h.items.GetByID(ctx, *newItemID)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Item not found")
		return nil, false
	}
	if item.UserID != userID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Item does not belong to the authenticated user")
		return nil, false
	}
	return item, true
}

// decodeBody decodes a JSON request body and validates it. An empty body
// is allowed and leaves the request at its zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return false
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}

	return true
}
