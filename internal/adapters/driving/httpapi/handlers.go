package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/logger"
)

type ingestRequest struct {
	Paths []string `json:"paths"`
}

type searchRequest struct {
	Q        string   `json:"q"`
	K        int      `json:"k"`
	Vendors  []string `json:"vendors,omitempty"`
	Families []string `json:"families,omitempty"`
	Models   []string `json:"models,omitempty"`
}

type searchResponse struct {
	Citations []domain.Citation `json:"citations"`
}

type documentResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Vendor     string `json:"vendor,omitempty"`
	Family     string `json:"family,omitempty"`
	Model      string `json:"model,omitempty"`
	SourcePath string `json:"source_path"`
	PageCount  int    `json:"page_count"`
	CreatedAt  string `json:"created_at"`
}

// chunkResponse omits the embedding: callers want text, not vectors.
type chunkResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

type pageResponse struct {
	DocID  int64           `json:"doc_id"`
	Page   int             `json:"page"`
	Chunks []chunkResponse `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "paths must not be empty")
		return
	}

	report, err := s.ingest.Ingest(r.Context(), req.Paths)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	citations, err := s.search.Search(r.Context(), domain.Query{
		Text:     req.Q,
		K:        req.K,
		Vendors:  req.Vendors,
		Families: req.Families,
		Models:   req.Models,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if citations == nil {
		citations = []domain.Citation{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Citations: citations})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		Vendor:     doc.Vendor,
		Family:     doc.Family,
		Model:      doc.Model,
		SourcePath: doc.SourcePath,
		PageCount:  doc.PageCount,
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}

	chunks, err := s.documents.PageChunks(r.Context(), id, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]chunkResponse, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, chunkResponse{
			ID:        chunk.ID,
			Text:      chunk.Text,
			PageStart: chunk.PageStart,
			PageEnd:   chunk.PageEnd,
		})
	}
	writeJSON(w, http.StatusOK, pageResponse{DocID: id, Page: page, Chunks: out})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := s.documents.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return id, true
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Warn("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}
