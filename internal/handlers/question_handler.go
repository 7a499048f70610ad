package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// Preview draws random questions of a level without their answers
// @Summary Preview questions
// @Tags questions
// @Produce json
// @Param level path string true "Level (A1-C2)"
// @Param limit query int false "Number of questions"
// @Success 200 {object} Response{data=[]services.QuestionView}
// @Router /assessment/questions/{level} [get]
func (h *QuestionHandler) Preview(c *gin.Context) {
	level, ok := parseLevel(c.Param("level"))
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_level", "Unknown level", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPreviewLimit)))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "limit must be a number", err)
		return
	}

	questions, err := h.questionService.Preview(c.Request.Context(), level, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", questions)
}

// ===== ADMIN: QUESTIONS =====

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page := parsePage(c)
	level, ok := optionalLevel(c, "level")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_level", "Unknown level", nil)
		return
	}
	filters := repositories.QuestionFilters{
		Level:        level,
		CompetencyID: optionalString(c, "competencyId"),
		Search:       c.Query("search"),
		Page:         page.Query,
	}

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithPage(c, questions, total, page)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", question)
}

// CreateQuestion adds a question to the pool
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.QuestionRequest true "Question data"
// @Success 201 {object} Response{data=models.Question}
// @Failure 400 {object} Response
// @Router /admin/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Creating question", "level", req.Level)

	question, err := h.questionService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Question created", question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), user.ID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question updated", question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), user.ID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question deleted", nil)
}

// BulkCreate stores every valid question of the batch and reports the
// rejected ones by index.
func (h *QuestionHandler) BulkCreate(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.BulkCreateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Bulk creating questions", "count", len(req.Questions))

	result, err := h.questionService.BulkCreate(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Created == 0 {
		status = http.StatusOK
	}
	h.RespondWithSuccess(c, status, "", result)
}

// ===== COMPETENCIES =====

func (h *QuestionHandler) ListCompetencies(c *gin.Context) {
	competencies, err := h.questionService.ListCompetencies(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", competencies)
}

func (h *QuestionHandler) CreateCompetency(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	var req services.CompetencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	competency, err := h.questionService.CreateCompetency(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Competency created", competency)
}

func (h *QuestionHandler) UpdateCompetency(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.CompetencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	competency, err := h.questionService.UpdateCompetency(c.Request.Context(), user.ID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Competency updated", competency)
}

func (h *QuestionHandler) DeleteCompetency(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.questionService.DeleteCompetency(c.Request.Context(), user.ID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Competency deleted", nil)
}
