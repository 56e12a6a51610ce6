package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tiklens/internal/api/middleware"
	"github.com/timmy/tiklens/internal/domain"
	"github.com/timmy/tiklens/internal/logger"
	"github.com/timmy/tiklens/internal/prompts"
)

// AnalysisHandler serves the simulated AI-analysis endpoints.
type AnalysisHandler struct {
	store *JobStore
}

// NewAnalysisHandler creates an analysis handler backed by the store.
func NewAnalysisHandler(store *JobStore) *AnalysisHandler {
	return &AnalysisHandler{store: store}
}

type startAnalysisRequest struct {
	JobID             string `json:"job_id" binding:"required"`
	CustomInstruction string `json:"custom_instruction"`
}

type cancelAnalysisRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// Start begins a simulated analysis job over a completed collection job. An
// empty custom instruction falls back to the built-in analysis prompt, the
// same default the production backend applies.
func (h *AnalysisHandler) Start(c *gin.Context) {
	var req startAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}

	instruction := req.CustomInstruction
	if instruction == "" {
		instruction = prompts.DefaultAnalysisInstruction
	}

	jobID, ok := h.store.StartAnalysis(req.JobID, instruction)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "collection job not found or not completed"})
		return
	}

	middleware.GetLogger(c).WithFields(logger.Fields{
		logger.FieldJobID:   jobID,
		logger.FieldJobKind: string(domain.JobKindAnalysis),
	}).Infof("Analysis job started: collection_job_id=%s", req.JobID)

	c.JSON(http.StatusOK, gin.H{"job_id": jobID})
}

// Status reports the state of an analysis job. Completed jobs carry the
// result payload.
func (h *AnalysisHandler) Status(c *gin.Context) {
	jobID := c.Param("id")
	state, ok := h.store.State(jobID)
	if !ok || state.Kind != domain.JobKindAnalysis {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	message := "Analyzing comments"
	switch {
	case state.Status == domain.JobStatusPending:
		message = "Queued"
	case state.Status == domain.JobStatusCancelled:
		message = "Analysis cancelled"
	case state.Status == domain.JobStatusCompleted:
		message = "Analysis complete"
	case state.Progress >= 60:
		message = "Drafting report"
	}

	resp := gin.H{
		"job_id":   jobID,
		"status":   state.Status,
		"progress": state.Progress,
		"message":  message,
	}
	if state.Status == domain.JobStatusCompleted {
		resp["result"] = gin.H{"text": sampleAnalysisText}
	}

	c.JSON(http.StatusOK, resp)
}

// Cancel stops the analysis job named in the request body. Idempotent.
func (h *AnalysisHandler) Cancel(c *gin.Context) {
	var req cancelAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}
	if !h.store.Cancel(req.JobID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// sampleAnalysisText mimics raw model output, including the decoration and
// preamble noise that real responses carry.
const sampleAnalysisText = "Chắc chắn rồi! Dưới đây là bản phân tích chi tiết.\n" +
	"# Phân Tích Comment TikTok\n" +
	"===\n" +
	"```css\n" +
	"table { border: 1px solid; }\n" +
	"```\n" +
	"1. TỔNG QUAN\n" +
	"Cảm xúc tích cực chiếm đa số (68%) trong tổng số comment đã thu thập.\n\n" +
	"XU HƯỚNG CHÍNH\n" +
	"• Người xem quan tâm đến chất lượng in ấn\n" +
	"• Nhiều câu hỏi về thời gian giao hàng (3/10 comment)\n\n" +
	"2. CHI TIẾT THEO NHÓM\n" +
	"a. Khen ngợi sản phẩm\n" +
	"- Mẫu thiết kế được đánh giá cao\n" +
	"- Tỷ lệ hài lòng đạt 85%\n\n" +
	"b. Phàn nàn\n" +
	"- Giao hàng chậm tại khu vực miền Trung\n\n" +
	"3. ĐỀ XUẤT\n" +
	"Phản hồi nhanh các câu hỏi về vận chuyển (trong 24 giờ) để giữ chân khách hàng.\n"
