package httpapi

import (
	"net/http"

	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/services"
	"github.com/deliverhub/deliverhub/internal/server/storage"
)

func (s *Server) handleInitiateUpload(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Kind        string  `json:"kind"`
		ProjectID   string  `json:"projectId"`
		FolderID    *string `json:"folderId"`
		Filename    string  `json:"filename"`
		ContentType string  `json:"contentType"`
		SizeBytes   int64   `json:"sizeBytes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.uploads.InitiateUpload(r.Context(), p, services.InitiateInput{
		Kind:        models.ItemKind(req.Kind),
		ProjectID:   req.ProjectID,
		FolderID:    req.FolderID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleCompleteUpload(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		UploadID    string                  `json:"uploadId"`
		Key         string                  `json:"key"`
		Kind        string                  `json:"kind"`
		ProjectID   string                  `json:"projectId"`
		FolderID    *string                 `json:"folderId"`
		Filename    string                  `json:"filename"`
		ContentType string                  `json:"contentType"`
		SizeBytes   int64                   `json:"sizeBytes"`
		Parts       []storage.CompletedPart `json:"parts"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := s.uploads.CompleteUpload(r.Context(), p, services.CompleteInput{
		UploadID:    req.UploadID,
		Key:         req.Key,
		Kind:        models.ItemKind(req.Kind),
		ProjectID:   req.ProjectID,
		FolderID:    req.FolderID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Parts:       req.Parts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemJSON(item))
}

func (s *Server) handleAbortUpload(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		UploadID string `json:"uploadId"`
		Key      string `json:"key"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.uploads.AbortUpload(r.Context(), p, req.UploadID, req.Key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
