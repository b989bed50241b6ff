package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
	"groupstat/internal"
	"groupstat/internal/analysis"
	"groupstat/internal/errors"
	"groupstat/internal/report"
	"groupstat/internal/sweep"
)

// Server exposes the analysis engine over HTTP
type Server struct {
	engine    *analysis.Engine
	generator *sweep.Generator
	formatter *report.Formatter
	store     ReportStore
	defaults  analysis.Options
	log       *internal.Logger
}

// NewServer wires the engine, sweep generator and report store
func NewServer(store ReportStore, defaults analysis.Options) *Server {
	return &Server{
		engine:    analysis.NewEngine(),
		generator: sweep.NewGenerator(),
		formatter: report.NewFormatter(),
		store:     store,
		defaults:  defaults,
		log:       internal.DefaultLogger,
	}
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/v1/analyses", func(r chi.Router) {
		r.Post("/omnibus", s.handleOmnibus)
		r.Post("/summary", s.handleSummary)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/report", s.handleReport)
	})
	return r
}

func (s *Server) handleOmnibus(w http.ResponseWriter, r *http.Request) {
	var payload OmnibusRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	frame, err := buildFrame(payload.Columns)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.engine.Omnibus(analysis.OmnibusRequest{
		Frame:    frame,
		Response: payload.Response,
		Factor:   payload.Factor,
		PairedBy: payload.PairedBy,
		Options:  buildOptions(payload.Options, s.defaults),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.SaveOmnibus(r.Context(), result); err != nil {
		s.log.Warn("failed to persist omnibus report %s: %v", result.ID, err)
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var payload SummaryRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	frame, err := buildFrame(payload.Columns)
	if err != nil {
		s.writeError(w, err)
		return
	}

	table, err := s.generator.SummaryTable(r.Context(), frame, payload.Factor,
		buildOptions(payload.Options, s.defaults), payload.Exclude...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.SaveSummary(r.Context(), table); err != nil {
		s.log.Warn("failed to persist summary table %s: %v", table.ID, err)
	}
	s.writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := core.AnalysisID(chi.URLParam(r, "id"))
	_, payload, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := core.AnalysisID(chi.URLParam(r, "id"))
	md, err := s.renderMarkdown(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.formatter.ToHTML(md))
}

func (s *Server) renderMarkdown(ctx context.Context, id core.AnalysisID) (string, error) {
	kind, payload, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	switch kind {
	case "omnibus":
		var rep domstats.OmnibusReport
		if err := json.Unmarshal(payload, &rep); err != nil {
			return "", errors.Wrap(err, "stored omnibus report is unreadable")
		}
		return s.formatter.OmnibusMarkdown(&rep), nil
	case "summary":
		var tbl domstats.SummaryTable
		if err := json.Unmarshal(payload, &tbl); err != nil {
			return "", errors.Wrap(err, "stored summary table is unreadable")
		}
		return s.formatter.SummaryMarkdown(&tbl), nil
	}
	return "", errors.NotFound("renderer for kind " + kind)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeColumnNotFound, errors.CodeInsufficientLevels,
		errors.CodeInsufficientObs, errors.CodeInvalidAlpha,
		errors.CodeInvalidEnum, errors.CodeDesignMismatch,
		errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}
