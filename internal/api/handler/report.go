package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/api/validation"
	"github.com/daap14/reportkit/internal/report"
)

type generateReportRequest struct {
	StudentInfo string `json:"studentInfo"`
}

type reportResponse struct {
	Report      string `json:"report"`
	Model       string `json:"model"`
	GeneratedAt string `json:"generatedAt"`
}

type upstreamDetails struct {
	UpstreamStatus int `json:"upstreamStatus"`
}

// ReportHandler relays report requests to the LLM generator.
type ReportHandler struct {
	generator report.Generator
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(generator report.Generator) *ReportHandler {
	return &ReportHandler{generator: generator}
}

// Generate handles POST /api/generate-report.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	externalID := middleware.GetExternalID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateGenerateReportRequest(validation.GenerateReportRequest{
		StudentInfo: req.StudentInfo,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	rep, err := h.generator.Generate(r.Context(), strings.TrimSpace(req.StudentInfo))
	if err != nil {
		var upstreamErr *report.UpstreamError
		switch {
		case errors.Is(err, report.ErrNotConfigured):
			response.Err(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Report generation is not configured", requestID)
		case errors.As(err, &upstreamErr):
			slog.Error("report upstream error", "status", upstreamErr.StatusCode, "body", upstreamErr.Body,
				"externalId", externalID, "operation", "generate_report", "requestId", requestID)
			response.ErrWithDetails(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to generate report from AI service",
				upstreamDetails{UpstreamStatus: upstreamErr.StatusCode}, requestID)
		case errors.Is(err, report.ErrEmptyCompletion):
			response.Err(w, http.StatusBadGateway, "UPSTREAM_ERROR", "No report generated from AI service", requestID)
		default:
			slog.Error("failed to generate report", "error", err, "externalId", externalID, "operation", "generate_report", "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred while generating the report", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, reportResponse{
		Report:      rep.Content,
		Model:       rep.Model,
		GeneratedAt: formatTime(rep.GeneratedAt),
	}, requestID)
}
