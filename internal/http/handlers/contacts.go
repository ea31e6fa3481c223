package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/apperr"
	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/http/respond"
	"github.com/hongminglow/contact-keeper/internal/models/dto"
	"github.com/hongminglow/contact-keeper/internal/service"
)

// ContactHandler serves the caller's contacts. Every route requires a session.
type ContactHandler struct {
	contacts *service.ContactService
	log      *zap.Logger
}

// NewContactHandler constructs the handler.
func NewContactHandler(contacts *service.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, log: log}
}

// Register attaches contact routes behind requireAuth.
func (h *ContactHandler) Register(r *mux.Router, requireAuth func(http.Handler) http.Handler) {
	sub := r.PathPrefix("/api/contacts").Subrouter()
	sub.Use(requireAuth)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{id}", h.handleUpdate).Methods(http.MethodPut)
	sub.HandleFunc("/{id}", h.handleDelete).Methods(http.MethodDelete)
}

func (h *ContactHandler) handleList(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context(), callerID(r))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "contacts", contacts)
}

func (h *ContactHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	contact, err := h.contacts.Create(r.Context(), callerID(r), fieldsFrom(req))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "contact created", contact)
}

func (h *ContactHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	contact, err := h.contacts.Get(r.Context(), callerID(r), mux.Vars(r)["id"])
	if err != nil {
		h.logDenied(r, err)
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "contact", contact)
}

func (h *ContactHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	contact, err := h.contacts.Update(r.Context(), callerID(r), mux.Vars(r)["id"], fieldsFrom(req))
	if err != nil {
		h.logDenied(r, err)
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "contact updated", contact)
}

func (h *ContactHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), callerID(r), mux.Vars(r)["id"]); err != nil {
		h.logDenied(r, err)
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "contact deleted", dto.MessageResponse{Msg: "Contact removed"})
}

// logDenied records ownership violations; they are worth noticing.
func (h *ContactHandler) logDenied(r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindForbidden {
		h.log.Warn("contact access denied",
			zap.String("user_id", callerID(r)),
			zap.String("contact_id", mux.Vars(r)["id"]),
			zap.String("method", r.Method),
		)
	}
}

func callerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func fieldsFrom(req dto.ContactRequest) service.ContactFields {
	return service.ContactFields{Name: req.Name, Email: req.Email, Phone: req.Phone, Type: req.Type}
}
