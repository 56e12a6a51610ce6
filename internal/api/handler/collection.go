package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tiklens/internal/api/middleware"
	"github.com/timmy/tiklens/internal/domain"
	"github.com/timmy/tiklens/internal/logger"
)

// CollectionHandler serves the simulated comment-collection endpoints.
type CollectionHandler struct {
	store *JobStore
}

// NewCollectionHandler creates a collection handler backed by the store.
func NewCollectionHandler(store *JobStore) *CollectionHandler {
	return &CollectionHandler{store: store}
}

type startCollectionRequest struct {
	SubjectID  string `json:"subject_id" binding:"required"`
	SubjectURL string `json:"subject_url"`
}

// Start begins a simulated collection job.
func (h *CollectionHandler) Start(c *gin.Context) {
	var req startCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject_id is required"})
		return
	}

	jobID := h.store.StartCollection(req.SubjectID)
	middleware.GetLogger(c).WithFields(logger.Fields{
		logger.FieldJobID:   jobID,
		logger.FieldJobKind: string(domain.JobKindCollection),
	}).Infof("Collection job started: subject_id=%s", req.SubjectID)

	c.JSON(http.StatusOK, gin.H{"job_id": jobID})
}

// Status reports the state of a collection job.
func (h *CollectionHandler) Status(c *gin.Context) {
	jobID := c.Param("id")
	state, ok := h.store.State(jobID)
	if !ok || state.Kind != domain.JobKindCollection {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	// Comment counts scale with progress so the client sees them grow.
	comments := int(state.Progress * 12)
	replies := comments / 4

	message := "Collecting comments"
	switch {
	case state.Status == domain.JobStatusPending:
		message = "Queued"
	case state.Status == domain.JobStatusCancelled:
		message = "Collection cancelled"
	case state.Status == domain.JobStatusCompleted:
		message = fmt.Sprintf("Collected %d comments", comments)
	case state.Progress >= 50:
		message = "Collecting replies"
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":   jobID,
		"status":   state.Status,
		"progress": state.Progress,
		"message":  message,
		"stats": gin.H{
			"comments": comments,
			"replies":  replies,
		},
	})
}

// Cancel stops the most recently started collection job. The request body is
// ignored; the endpoint is idempotent.
func (h *CollectionHandler) Cancel(c *gin.Context) {
	if !h.store.CancelActiveCollection() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no collection job to cancel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
