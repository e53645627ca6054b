package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/model"
	"github.com/sadopc/askfin/internal/store"
)

type handler struct {
	backend Backend
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Status  string          `json:"status"`
	SQL     string          `json:"sql,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type reportRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{{
			Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.jsondecode",
		}}})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Detail: "Query cannot be empty"})
		return
	}

	res, err := h.backend.RunQuery(ctx, req.Query)
	if errors.Is(err, store.ErrNotReadOnly) {
		writeJSON(w, r, http.StatusOK, askResponse{
			Status:  "error",
			Message: "This backend answers read-only SQL only: " + err.Error(),
		})
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("query failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	data, err := model.EncodeRecords(res.Columns, res.Rows)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode rows")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: "failed to encode rows"})
		return
	}
	logger.Debug().Int("rows", len(res.Rows)).Msg("query answered")
	writeJSON(w, r, http.StatusOK, askResponse{Status: "success", SQL: res.GeneratedQuery, Data: data})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backend.Dashboard(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("dashboard failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: "failed to load dashboard"})
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (h *handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.backend.ListReports(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list reports failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: "failed to list reports"})
		return
	}
	writeJSON(w, r, http.StatusOK, reports)
}

func (h *handler) createReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{{
			Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.jsondecode",
		}}})
		return
	}
	var missing []fieldError
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, fieldError{Loc: []string{"body", "name"}, Msg: "name cannot be empty", Type: "value_error"})
	}
	if strings.TrimSpace(req.Query) == "" {
		missing = append(missing, fieldError{Loc: []string{"body", "query"}, Msg: "query cannot be empty", Type: "value_error"})
	}
	if len(missing) > 0 {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: missing})
		return
	}

	report, err := h.backend.CreateReport(ctx, req.Name, req.Query)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create report failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: "failed to create report"})
		return
	}
	zerolog.Ctx(ctx).Info().Int64("id", report.ID).Msg("report created")
	writeJSON(w, r, http.StatusOK, report)
}

func (h *handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "reportID")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Detail: []fieldError{{
			Loc: []string{"path", "report_id"}, Msg: "value is not a valid integer", Type: "type_error.integer",
		}}})
		return
	}

	err = h.backend.DeleteReport(ctx, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Detail: "Report not found"})
		return
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Int64("id", id).Msg("delete report failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Detail: "failed to delete report"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Report deleted"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
