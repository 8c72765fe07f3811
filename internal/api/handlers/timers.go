package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/timetrack/internal/api/middleware"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Notifier pushes fresh state to a user's live connection.
type Notifier interface {
	Notify(userID uuid.UUID)
}

type TimerHandler struct {
	timerService *service.TimerService
	notifier     Notifier
}

func NewTimerHandler(timerService *service.TimerService, notifier Notifier) *TimerHandler {
	return &TimerHandler{
		timerService: timerService,
		notifier:     notifier,
	}
}

type CreateTimerRequest struct {
	Description string `json:"description"`
}

type CreateTimerResponse struct {
	Description string    `json:"description"`
	ID          uuid.UUID `json:"id"`
}

type StopTimerResponse struct {
	ID uuid.UUID `json:"id"`
}

func (h *TimerHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context()).User

	status, err := service.ParseStatus(r.URL.Query().Get("isActive"))
	if err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.timerService.List(r.Context(), user.ID, status)
	if err != nil {
		writeInternal(w, r, err, "list timers failed")
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *TimerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context()).User

	var req CreateTimerRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMsg(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeMsg(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Description = r.PostForm.Get("description")
	}

	timer, err := h.timerService.Create(r.Context(), user.ID, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDescription) {
			writeMsg(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternal(w, r, err, "create timer failed")
		return
	}

	h.notifier.Notify(user.ID)
	writeJSON(w, http.StatusCreated, CreateTimerResponse{
		Description: timer.Description,
		ID:          timer.ID,
	})
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context()).User

	timerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMsg(w, http.StatusNotFound, domain.ErrTimerNotFound.Error())
		return
	}

	timer, err := h.timerService.Stop(r.Context(), user.ID, timerID)
	if err != nil {
		if errors.Is(err, domain.ErrTimerNotFound) {
			writeMsg(w, http.StatusNotFound, err.Error())
			return
		}
		writeInternal(w, r, err, "stop timer failed")
		return
	}

	h.notifier.Notify(user.ID)
	writeJSON(w, http.StatusCreated, StopTimerResponse{ID: timer.ID})
}
