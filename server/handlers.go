package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/search"
	"github.com/poiesic/specindex/storage"
)

const (
	defaultRecentQueries = 20
	maxRecentQueries     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("query request", "query", body.Query, "sections", body.Sections, "payItem", body.PayItem)

	resp, err := s.engine.Query(r.Context(), body.toRequest())
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, search.ErrServiceUnavailable):
		s.logger.Error("query failed", "err", err)
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("query failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, newQueryResponse(resp))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.specRepo.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("listing documents failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]documentDTO, 0, len(docs))
	for _, doc := range docs {
		out = append(out, newDocumentDTO(doc))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// handleGetSection returns a section with its subsections. The optional document
// query parameter selects a version; the latest import is used otherwise.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := s.documentParam(w, r)
	if !ok {
		return
	}

	section, err := s.specRepo.GetSection(ctx, docID, chi.URLParam(r, "number"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "section not found")
		return
	}
	if err != nil {
		s.logger.Error("reading section failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	subsections, err := s.specRepo.GetSubsections(ctx, section.Id)
	if err != nil {
		s.logger.Error("reading subsections failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, newSectionDTO(section, subsections))
}

func (s *Server) handleGetPayItem(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.documentParam(w, r)
	if !ok {
		return
	}

	item, err := s.specRepo.GetPayItem(r.Context(), docID, chi.URLParam(r, "code"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "pay item not found")
		return
	}
	if err != nil {
		s.logger.Error("reading pay item failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, payItemDTO{
		Code:          item.ItemNumber,
		Description:   item.Description,
		Unit:          item.Unit,
		SectionNumber: item.SectionNumber,
	})
}

func (s *Server) handleRecentQueries(w http.ResponseWriter, r *http.Request) {
	if s.queryLog == nil {
		s.respondError(w, http.StatusNotImplemented, "query log not enabled")
		return
	}

	limit := defaultRecentQueries
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentQueries)
	}

	entries, err := s.queryLog.RecentQueries(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading query log failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]queryLogDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, newQueryLogDTO(entry))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"queries": out})
}

// documentParam resolves the document query parameter, defaulting to the latest
// document. It writes the error response itself and reports false on failure.
func (s *Server) documentParam(w http.ResponseWriter, r *http.Request) (core.ID, bool) {
	if raw := r.URL.Query().Get("document"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid document id")
			return 0, false
		}
		return core.ID(id), true
	}

	doc, err := s.specRepo.LatestDocument(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "no document imported")
		return 0, false
	}
	if err != nil {
		s.logger.Error("reading latest document failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return 0, false
	}
	return doc.Id, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response failed", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
