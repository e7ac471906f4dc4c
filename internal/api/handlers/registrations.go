package handlers

import (
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/eventreg/internal/audit"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
)

type RegistrationsHandler struct {
	Service *registrations.Service
	Audit   *audit.Logger
	Env     string
}

func NewRegistrationsHandler(service *registrations.Service, auditLogger *audit.Logger, env string) *RegistrationsHandler {
	return &RegistrationsHandler{Service: service, Audit: auditLogger, Env: env}
}

// List returns registrations, optionally filtered by ?username= and
// ?event_id=.
func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := registrations.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RegistrationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input registrations.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	reg, err := h.Service.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// Delete removes the registration named by ?username=&event_id=. Without
// either parameter it removes every registration.
func (h *RegistrationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok, err := registrations.ParseKey(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	if !ok {
		n, err := h.Service.DeleteAll(r.Context())
		if err != nil {
			h.Audit.LogFromRequest(r, "registrations.delete_all", "registration", "", "failure", map[string]string{"error": err.Error()})
			writeError(w, r, err, h.Env)
			return
		}
		h.Audit.LogFromRequest(r, "registrations.delete_all", "registration", "", "success", map[string]string{"count": strconv.FormatInt(n, 10)})
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resourceID := key.Username + "/" + strconv.FormatInt(key.EventID, 10)
	if err := h.Service.Delete(r.Context(), key); err != nil {
		h.Audit.LogFromRequest(r, "registrations.delete", "registration", resourceID, "failure", map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, "registrations.delete", "registration", resourceID, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}
