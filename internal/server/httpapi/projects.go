package httpapi

import (
	"net/http"

	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/services"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Title    string `json:"title"`
		ClientID string `json:"clientId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	project, err := s.projects.Create(r.Context(), p, req.Title, req.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectJSON(project, nil))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := s.projects.List(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]projectJSON, 0, len(list))
	for _, project := range list {
		out = append(out, toProjectJSON(project, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := s.projects.Get(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectJSON(detail.Project, detail.StaffIDs))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := services.UpdateInput{Title: req.Title}
	if req.Status != nil {
		st := models.ProjectStatus(*req.Status)
		in.Status = &st
	}

	project, err := s.projects.Update(r.Context(), p, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectJSON(project, nil))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.projects.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetStaff(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		StaffIDs []string `json:"staffIds"`
		Notes    string   `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.projects.SetStaff(r.Context(), p, r.PathValue("id"), req.StaffIDs, req.Notes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitCompletion(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := s.projects.SubmitForCompletion(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectJSON(project, nil))
}

func (s *Server) handleNotifyCompletion(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Email string  `json:"email"`
		Cc    *string `json:"cc"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	project, err := s.projects.NotifyCompletion(r.Context(), p, r.PathValue("id"), req.Email, req.Cc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectJSON(project, nil))
}
