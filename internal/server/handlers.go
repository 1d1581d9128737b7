package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/selimcan/tagsense/internal/engine"
	"github.com/selimcan/tagsense/internal/index"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/tagsearch"
	"github.com/selimcan/tagsense/internal/tagstore"
	"github.com/selimcan/tagsense/internal/walker"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.engine.Tags.AllTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tag, err := s.engine.Tags.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx := r.Context()
	if req.Name != "" {
		if err := s.engine.Tags.RenameTag(ctx, id, req.Name); err != nil {
			writeError(w, tagStatus(err), err)
			return
		}
	}
	if req.Color != "" {
		if err := s.engine.Tags.SetColor(ctx, id, req.Color); err != nil {
			writeError(w, tagStatus(err), err)
			return
		}
	}
	tag, err := s.engine.Tags.GetTag(ctx, id)
	if err != nil {
		writeError(w, tagStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Tags.DeleteTag(r.Context(), id); err != nil {
		writeError(w, tagStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func tagStatus(err error) int {
	if errors.Is(err, tagstore.ErrTagNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) handleFileTags(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	tags, err := s.engine.Tags.TagsForFile(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type fileTagRequest struct {
	Path  string `json:"path"`
	TagID int64  `json:"tag_id"`
}

func (s *Server) handleTagFile(w http.ResponseWriter, r *http.Request) {
	var req fileTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Tags.TagFile(r.Context(), req.Path, req.TagID); err != nil {
		writeError(w, tagStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUntagFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tagID, err := strconv.ParseInt(q.Get("tag_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.Tags.UntagFile(r.Context(), q.Get("path"), tagID); err != nil {
		writeError(w, tagStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	if err := s.engine.RemoveFile(r.Context(), path); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tagQuery is the wire form of a tag predicate: a flat list of tag
// names combined with AND (default) or OR.
type tagQuery struct {
	Tags []string `json:"tags"`
	Any  bool     `json:"any"`
}

// predicate resolves tag names to a predicate. Unknown names map to an
// impossible clause so AND queries over them come back empty instead
// of erroring, matching the deleted-tag semantics.
func (s *Server) predicate(r *http.Request, q tagQuery) (*tagsearch.Predicate, error) {
	clauses := make([]*tagsearch.Predicate, 0, len(q.Tags))
	for _, name := range q.Tags {
		tag, err := s.engine.Tags.GetTagByName(r.Context(), name)
		if errors.Is(err, tagstore.ErrTagNotFound) {
			clauses = append(clauses, tagsearch.Has(-1))
			continue
		}
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, tagsearch.Has(tag.ID))
	}
	if q.Any {
		return tagsearch.Any(clauses...), nil
	}
	return tagsearch.All(clauses...), nil
}

func (s *Server) handleTagSearch(w http.ResponseWriter, r *http.Request) {
	var req tagQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.predicate(r, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	files, err := s.engine.BooleanSearch(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
		tagQuery
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	var p *tagsearch.Predicate
	if len(req.Tags) > 0 {
		var err error
		if p, err = s.predicate(r, req.tagQuery); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	results, err := s.engine.SemanticSearch(r.Context(), semantic.Query{
		Text:      req.Query,
		Predicate: p,
		TopK:      req.TopK,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	set, err := s.engine.SuggestTags(r.Context(), path, refresh)
	if errors.Is(err, engine.ErrNoProvider) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// reindexResponse flattens ReindexResult for JSON; error values do not
// marshal on their own.
func reindexResponse(result *index.ReindexResult) map[string]any {
	errs := make([]string, 0, len(result.Errors))
	for _, err := range result.Errors {
		errs = append(errs, err.Error())
	}
	return map[string]any{
		"indexed": result.Indexed,
		"skipped": result.Skipped,
		"empty":   result.Empty,
		"errors":  errs,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path  string `json:"path"`
		Dir   string `json:"dir"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx := r.Context()
	switch {
	case req.Path != "":
		if err := s.engine.IndexFile(ctx, req.Path, req.Force); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "indexed"})
	case req.Dir != "":
		result, err := s.engine.IndexDir(ctx, walker.Config{RootDir: req.Dir}, req.Force, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, reindexResponse(result))
	default:
		writeError(w, http.StatusBadRequest, errors.New("path or dir is required"))
	}
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.ReindexAll(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse(result))
}
