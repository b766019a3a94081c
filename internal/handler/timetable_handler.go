package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/service"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/response"
)

// FingerprintHeader carries the roster fingerprint of the returned timetable.
const FingerprintHeader = "X-Timetable-Fingerprint"

type timetableEngine interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	GenerateVariants(ctx context.Context, req dto.GenerateVariantsRequest) (*dto.GenerateVariantsResponse, error)
	SubmitGenerate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.JobResponse, error)
	JobStatus(ctx context.Context, id string) (*dto.JobResponse, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Latest(ctx context.Context, fingerprint string) (*dto.TimetableResponse, error)
	Versions(ctx context.Context, id string) ([]models.TimetableVersion, error)
	UpdateAssignments(ctx context.Context, id string, req dto.UpdateAssignmentsRequest) (*dto.TimetableResponse, error)
	Enforce(ctx context.Context, id string, req dto.EnforceTimetableRequest) (*dto.EnforceTimetableResponse, error)
	Export(ctx context.Context, id, format string) (*service.ExportFile, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler exposes timetable generation and enforcement endpoints.
type TimetableHandler struct {
	service timetableEngine
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Register mounts the timetable routes on the group.
func (h *TimetableHandler) Register(group *gin.RouterGroup) {
	timetables := group.Group("/timetables")
	timetables.GET("", h.Latest)
	timetables.POST("/generate", h.Generate)
	timetables.POST("/variants", h.GenerateVariants)
	timetables.POST("/jobs", h.SubmitJob)
	timetables.GET("/jobs/:id", h.JobStatus)
	timetables.GET("/:id", h.Get)
	timetables.GET("/:id/versions", h.Versions)
	timetables.PUT("/:id/assignments", h.UpdateAssignments)
	timetables.POST("/:id/enforce", h.Enforce)
	timetables.GET("/:id/export", h.Export)
	timetables.DELETE("/:id", h.Delete)
}

// Generate godoc
// @Summary Generate a timetable
// @Description Solves the roster and stores the result as a new version. Identical rosters are served from the result cache unless fresh is set.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Roster and solver options"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Fingerprint)
	if result.Cached {
		response.JSON(c, http.StatusOK, result)
		return
	}
	response.Created(c, result)
}

// GenerateVariants godoc
// @Summary Generate timetable variants
// @Description Solves the roster once per node budget and stores the best variant.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateVariantsRequest true "Roster and node budgets"
// @Success 201 {object} response.Envelope
// @Router /timetables/variants [post]
func (h *TimetableHandler) GenerateVariants(c *gin.Context) {
	var req dto.GenerateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid variants payload"))
		return
	}
	result, err := h.service.GenerateVariants(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Selected.Fingerprint)
	response.Created(c, result, map[string]interface{}{"variants": len(result.Variants)})
}

// SubmitJob godoc
// @Summary Queue a timetable generation
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Roster and solver options"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables/jobs [post]
func (h *TimetableHandler) SubmitJob(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	job, err := h.service.SubmitGenerate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job, jobLocation(c, job.ID))
}

func jobLocation(c *gin.Context, id string) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return strings.TrimSuffix(path, "/") + "/" + id
}

// JobStatus godoc
// @Summary Get generation job status
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	job, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Get godoc
// @Summary Get a stored timetable version
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Fingerprint)
	response.JSON(c, http.StatusOK, result)
}

// Latest godoc
// @Summary Get the newest timetable for a roster fingerprint
// @Tags Timetables
// @Produce json
// @Param fingerprint query string true "Roster fingerprint"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) Latest(c *gin.Context) {
	result, err := h.service.Latest(c.Request.Context(), c.Query("fingerprint"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Fingerprint)
	response.JSON(c, http.StatusOK, result)
}

// Versions godoc
// @Summary List versions sharing the timetable's roster fingerprint
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/versions [get]
func (h *TimetableHandler) Versions(c *gin.Context) {
	versions, err := h.service.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, map[string]interface{}{"total": len(versions)})
}

// UpdateAssignments godoc
// @Summary Store hand-edited assignments as a new version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.UpdateAssignmentsRequest true "Edited assignments"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/{id}/assignments [put]
func (h *TimetableHandler) UpdateAssignments(c *gin.Context) {
	var req dto.UpdateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignments payload"))
		return
	}
	result, err := h.service.UpdateAssignments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Fingerprint)
	response.Created(c, result)
}

// Enforce godoc
// @Summary Detect and repair constraint violations
// @Description Repairs the stored assignments, or the supplied ones, with minimal changes.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.EnforceTimetableRequest false "Optional assignments and repair budget"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/enforce [post]
func (h *TimetableHandler) Enforce(c *gin.Context) {
	var req dto.EnforceTimetableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enforce payload"))
			return
		}
	}
	result, err := h.service.Enforce(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(FingerprintHeader, result.Timetable.Fingerprint)
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download a timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Delete godoc
// @Summary Delete a stored timetable version
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
