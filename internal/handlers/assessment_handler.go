package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

const defaultHeartbeat = 15 * time.Second

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
	resultService     services.ResultService
	heartbeat         time.Duration
}

func NewAssessmentHandler(
	assessmentService services.AssessmentService,
	resultService services.ResultService,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
		resultService:     resultService,
		heartbeat:         defaultHeartbeat,
	}
}

// CanTake reports whether the caller may start a step
// @Summary Check step eligibility
// @Tags assessment
// @Produce json
// @Param step path int true "Step (1-3)"
// @Success 200 {object} Response{data=assessment.Eligibility}
// @Failure 400 {object} Response
// @Router /assessment/can-take/{step} [get]
func (h *AssessmentHandler) CanTake(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	step, ok := parseStep(c.Param("step"))
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_step", "Step must be 1, 2 or 3", assessment.ErrInvalidStep)
		return
	}

	eligibility, err := h.assessmentService.CanTake(c.Request.Context(), user.ID, step)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", eligibility)
}

// Start opens a session for a step
// @Summary Start assessment
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body services.StartAssessmentRequest true "Step to take"
// @Success 201 {object} Response{data=services.SessionView}
// @Failure 403 {object} Response
// @Router /assessment/start [post]
func (h *AssessmentHandler) Start(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.StartAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Starting assessment", "step", req.Step)

	view, err := h.assessmentService.Start(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Assessment started", view)
}

// Current returns the caller's live session with a fresh timer reading.
func (h *AssessmentHandler) Current(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	view, err := h.assessmentService.Current(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", view)
}

// Answer records one answer
// @Summary Answer question
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body services.AnswerRequest true "Answer"
// @Success 200 {object} Response{data=services.AnswerResponse}
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /assessment/answer [post]
func (h *AssessmentHandler) Answer(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	resp, err := h.assessmentService.Answer(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	message := ""
	if !resp.Synced {
		message = "Answer saved locally; it will be stored on submit"
	}
	h.RespondWithSuccess(c, http.StatusOK, message, resp)
}

func (h *AssessmentHandler) Navigate(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	view, err := h.assessmentService.Navigate(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", view)
}

// Submit scores the session and returns the stored result
// @Summary Submit assessment
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body services.SessionActionRequest true "Session"
// @Success 200 {object} Response{data=models.AssessmentResult}
// @Failure 409 {object} Response
// @Router /assessment/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Submitting assessment", "session_id", req.SessionID)

	result, err := h.assessmentService.Submit(c.Request.Context(), user.ID, req.SessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Assessment submitted", result)
}

func (h *AssessmentHandler) Abandon(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	if err := h.assessmentService.Abandon(c.Request.Context(), user.ID, req.SessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Assessment abandoned", nil)
}

// ===== EVENT STREAM =====

type streamEvent struct {
	Type      assessment.EventType     `json:"type"`
	SessionID string                   `json:"session_id"`
	At        time.Time                `json:"at"`
	Session   *services.SessionView    `json:"session,omitempty"`
	Result    *models.AssessmentResult `json:"result,omitempty"`
	Stage     assessment.Stage         `json:"stage,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func newStreamEvent(ev assessment.Event) streamEvent {
	out := streamEvent{
		Type:      ev.Type,
		SessionID: ev.SessionID,
		At:        ev.At,
		Result:    ev.Result,
	}
	if ev.Snapshot != nil {
		out.Session = services.NewSessionView(ev.Snapshot)
		out.Stage = ev.Snapshot.Timer.Stage()
	}
	if ev.Err != nil {
		out.Error = ev.Err.Error()
	}
	return out
}

// Events streams a session's timer ticks and lifecycle events as
// server-sent events. The first event is a snapshot of the session; the
// stream ends after the session is submitted or abandoned.
func (h *AssessmentHandler) Events(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	view, events, cancel, err := h.assessmentService.Subscribe(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer cancel()

	h.LogRequest(c, "Streaming session events", "session_id", sessionID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("snapshot", view)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), newStreamEvent(ev))
			return !ev.Type.Terminal()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case <-done:
			return false
		}
	})
}

// ===== RESULTS =====

func (h *AssessmentHandler) ListResults(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	page := parsePage(c)

	results, total, err := h.resultService.ListResults(c.Request.Context(), user.ID, page.Query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithPage(c, results, total, page)
}

func (h *AssessmentHandler) GetResult(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	result, err := h.resultService.GetResult(c.Request.Context(), user.ID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", result)
}

// Stats summarises the caller's attempts and progress.
func (h *AssessmentHandler) Stats(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	stats, err := h.resultService.Stats(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", stats)
}

func (h *AssessmentHandler) Certificates(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	certs, err := h.resultService.Certificates(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", certs)
}

// GenerateCertificate issues a certificate for an earned level
// @Summary Generate certificate
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body services.GenerateCertificateRequest true "Level"
// @Success 201 {object} Response{data=models.Certificate}
// @Success 200 {object} Response{data=models.Certificate}
// @Failure 403 {object} Response
// @Router /assessment/certificate/generate [post]
func (h *AssessmentHandler) GenerateCertificate(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.GenerateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}
	level, ok := parseLevel(string(req.Level))
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_level", "Unknown level", nil)
		return
	}

	cert, created, err := h.resultService.GenerateCertificate(c.Request.Context(), user.ID, level)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if created {
		h.RespondWithSuccess(c, http.StatusCreated, "Certificate issued", cert)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Certificate already issued", cert)
}
