package api

import (
	"net/http"
	"strconv"

	"gala-ops/pkg/models"

	"github.com/go-chi/chi/v5"
)

func parseID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.ops.ListTasks(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title    string `json:"title"`
	Assignee string `json:"assignee"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		s.respondBadRequest(w, "title is required")
		return
	}

	task := &models.Task{Title: req.Title, Assignee: req.Assignee}
	if err := s.ops.CreateTask(r.Context(), task); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Done bool `json:"done"`
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "taskID")
	if !ok {
		s.respondBadRequest(w, "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}

	if err := s.ops.SetTaskDone(r.Context(), id, req.Done); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "done": req.Done})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "taskID")
	if !ok {
		s.respondBadRequest(w, "invalid task id")
		return
	}

	if err := s.ops.DeleteTask(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMediaBenefits(w http.ResponseWriter, r *http.Request) {
	benefits, err := s.ops.MediaBenefits(r.Context(), chi.URLParam(r, "guestID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, benefits)
}

type createMediaBenefitRequest struct {
	Channel     string `json:"channel"`
	Description string `json:"description"`
}

func (s *Server) createMediaBenefit(w http.ResponseWriter, r *http.Request) {
	var req createMediaBenefitRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Channel == "" {
		s.respondBadRequest(w, "channel is required")
		return
	}

	benefit := &models.MediaBenefit{
		GuestID:     chi.URLParam(r, "guestID"),
		Channel:     req.Channel,
		Description: req.Description,
	}
	if err := s.ops.CreateMediaBenefit(r.Context(), benefit); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, benefit)
}

type updateMediaBenefitRequest struct {
	Delivered bool `json:"delivered"`
}

func (s *Server) updateMediaBenefit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "benefitID")
	if !ok {
		s.respondBadRequest(w, "invalid media benefit id")
		return
	}

	var req updateMediaBenefitRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}

	if err := s.ops.SetMediaDelivered(r.Context(), id, req.Delivered); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "delivered": req.Delivered})
}
