package handler

import (
	"net/http"

	"annotations/internal/notes/model"
	"annotations/internal/notes/service"
	"annotations/pkg/logger"
	"annotations/pkg/respond"
)

type NotesHandler struct {
	Service *service.NotesService
}

func NewNotesHandler(service *service.NotesService) *NotesHandler {
	return &NotesHandler{Service: service}
}

func (h *NotesHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodGet) {
		return
	}

	notes, err := h.Service.ListNotes(r.Context(), r.URL.Query().Get("context"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, notes)
}

func (h *NotesHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodPut) {
		return
	}

	var req model.UpdateNotesRequest
	if !respond.DecodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.ReplaceNotes(r.Context(), req.Context, req.Notes)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *NotesHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.UpdateNotesRequest
	if !respond.DecodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.AppendNotes(r.Context(), req.Context, req.Notes)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, model.Result{Status: res.Status})
}

func (h *NotesHandler) GetAllNotes(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodGet) {
		return
	}

	all, err := h.Service.ListAllContexts(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, all)
}

func (h *NotesHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodDelete) {
		return
	}

	var req model.DeleteNoteRequest
	if !respond.DecodeBody(w, r, &req) {
		return
	}
	logger.Sugar.Debugf("Received DELETE request with noteId: %s", req.NoteID)

	res, err := h.Service.DeleteNote(r.Context(), req.NoteID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *NotesHandler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	if !respond.AllowMethod(w, r, http.MethodDelete) {
		return
	}

	var req model.DeleteContextRequest
	if !respond.DecodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.DeleteContext(r.Context(), req.Context)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
