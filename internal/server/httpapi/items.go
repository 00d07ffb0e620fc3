package httpapi

import "net/http"

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := kindFromPath(r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := s.catalog.ListItems(r.Context(), p, r.PathValue("id"), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]itemJSON, 0, len(list))
	for _, it := range list {
		out = append(out, toItemJSON(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := kindFromPath(r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		TargetFolderID string `json:"targetFolderId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.folders.MoveItem(r.Context(), p, kind, r.PathValue("id"), req.TargetFolderID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := kindFromPath(r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.catalog.DeleteItem(r.Context(), p, kind, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreamURL(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := kindFromPath(r.PathValue("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	url, err := s.catalog.StreamAccessURL(r.Context(), p, kind, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
