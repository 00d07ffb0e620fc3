package httpapi

import (
	"net/http"

	"github.com/deliverhub/deliverhub/internal/server/models"
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := s.folders.ListFolders(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]folderJSON, 0, len(list))
	for _, f := range list {
		out = append(out, toFolderJSON(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		ParentID *string `json:"parentId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	f, err := s.folders.CreateFolder(r.Context(), p, r.PathValue("id"),
		req.Name, models.FolderType(req.Type), req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolderJSON(&models.FolderWithCount{Folder: *f}))
}
