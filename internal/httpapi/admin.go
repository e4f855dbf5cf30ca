package httpapi

import (
	"encoding/json"
	"net/http"
)

type addRootRequest struct {
	Path string `json:"path"`
}

type statusResponse struct {
	Ready bool               `json:"ready"`
	Roots []rootStatusEntry  `json:"roots"`
}

type rootStatusEntry struct {
	Path         string  `json:"path"`
	Status       string  `json:"status"`
	TotalFiles   int64   `json:"total_files"`
	IndexedFiles int64   `json:"indexed_files"`
	LastFullScan *float64 `json:"last_full_scan,omitempty"`
	LastUpdated  *float64 `json:"last_updated,omitempty"`
	ErrorMessage *string  `json:"error_message,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.co.Status()
	resp := statusResponse{Ready: status.Ready}
	for _, rs := range status.Roots {
		resp.Roots = append(resp.Roots, rootStatusEntry{
			Path:         rs.Path,
			Status:       string(rs.Status),
			TotalFiles:   rs.TotalFiles,
			IndexedFiles: rs.IndexedFiles,
			LastFullScan: rs.LastFullScan,
			LastUpdated:  rs.LastUpdated,
			ErrorMessage: rs.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"roots": s.co.ListRoots()})

	case http.MethodPost:
		var req addRootRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.co.AddRoot(r.Context(), req.Path); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"path": req.Path})

	case http.MethodDelete:
		path := r.URL.Query().Get("path")
		if err := s.co.RemoveRoot(r.Context(), path); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := r.URL.Query().Get("path")
	if err := s.co.Rebuild(r.Context(), path); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleIgnores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"patterns": s.co.ListIgnores()})

	case http.MethodPost:
		var req struct {
			Pattern string `json:"pattern"`
			Default bool   `json:"default"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Default {
			if err := s.co.AddDefaultIgnores(r.Context()); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"patterns": s.co.ListIgnores()})
			return
		}
		if err := s.co.AddIgnore(r.Context(), req.Pattern); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"pattern": req.Pattern})

	case http.MethodDelete:
		pattern := r.URL.Query().Get("pattern")
		if err := s.co.RemoveIgnore(r.Context(), pattern); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
