package handlers

import (
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/eventreg/internal/audit"
	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
)

type EventsHandler struct {
	Service       *events.Service
	Registrations *registrations.Service
	Audit         *audit.Logger
	Env           string
}

func NewEventsHandler(service *events.Service, regs *registrations.Service, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Registrations: regs, Audit: auditLogger, Env: env}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID("id", pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// Update replaces every mutable field of the event.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID("id", pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "id")
	id, err := events.ParseID("id", raw)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Audit.LogFromRequest(r, "events.delete", "event", raw, "failure", map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, "events.delete", "event", raw, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.DeleteAll(r.Context())
	if err != nil {
		h.Audit.LogFromRequest(r, "events.delete_all", "event", "", "failure", map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, "events.delete_all", "event", "", "success", map[string]string{"count": strconv.FormatInt(n, 10)})
	w.WriteHeader(http.StatusNoContent)
}

// Register admits a user to the event named in the path. The body carries
// the username and, optionally, a name and email used to create the user.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := events.ParseID("id", pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var input registrations.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	input.EventID = id

	reg, err := h.Registrations.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}
