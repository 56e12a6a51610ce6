package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobsHandler lists the jobs the simulated backend knows about.
type JobsHandler struct {
	store *JobStore
}

// NewJobsHandler creates a jobs handler backed by the store.
func NewJobsHandler(store *JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// List returns every job with its current status, newest first.
func (h *JobsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.store.List()})
}
