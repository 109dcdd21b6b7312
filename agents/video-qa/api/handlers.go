package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	videoqa "video-qa/agents/video-qa"
	"video-qa/agents/video-qa/youtube"
	"video-qa/internal/models"
	"video-qa/shared/logging"
)

const maxBodyBytes = 1 << 20

// Service is the QA pipeline behind the HTTP handlers.
type Service interface {
	Process(ctx context.Context, rawURL string) (*models.ProcessResult, error)
	Ask(ctx context.Context, question, docID string) (string, error)
}

type ProcessRequest struct {
	VideoURL string `json:"video_url"`
}

type ProcessResponse struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	Title   string `json:"title"`
}

type AskRequest struct {
	Question string `json:"question"`
	DocID    string `json:"doc_id"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "YouTube-QnA Backend is running"})
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "video_url is required")
		return
	}

	res, err := h.Service.Process(r.Context(), strings.TrimSpace(req.VideoURL))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Message: "Video processed successfully",
		DocID:   res.DocID,
		Title:   res.Title,
	})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.Service.Ask(r.Context(), req.Question, req.DocID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, youtube.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, videoqa.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
