package handlers

import (
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/eventreg/internal/audit"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
)

type UsersHandler struct {
	Service *users.Service
	Audit   *audit.Logger
	Env     string
}

func NewUsersHandler(service *users.Service, auditLogger *audit.Logger, env string) *UsersHandler {
	return &UsersHandler{Service: service, Audit: auditLogger, Env: env}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Get(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input users.CreateUserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := pathParam(r, "username")
	if err := h.Service.Delete(r.Context(), username); err != nil {
		h.Audit.LogFromRequest(r, "users.delete", "user", username, "failure", map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, "users.delete", "user", username, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.DeleteAll(r.Context())
	if err != nil {
		h.Audit.LogFromRequest(r, "users.delete_all", "user", "", "failure", map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, "users.delete_all", "user", "", "success", map[string]string{"count": strconv.FormatInt(n, 10)})
	w.WriteHeader(http.StatusNoContent)
}
