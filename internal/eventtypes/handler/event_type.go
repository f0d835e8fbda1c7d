package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"meetly/internal/eventtypes/service"
	httputil "meetly/pkg/http"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

type EventTypeHandler struct {
	service service.EventTypeService
	log     *logger.Logger
}

func NewEventTypeHandler(service service.EventTypeService, log *logger.Logger) *EventTypeHandler {
	return &EventTypeHandler{
		service: service,
		log:     log,
	}
}

func (h *EventTypeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var et model.EventType
	if err := json.NewDecoder(r.Body).Decode(&et); err != nil {
		h.writeBadRequest(w, "Create", "Invalid request body")
		return
	}

	if err := h.service.Create(r.Context(), &et); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, et); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *EventTypeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "GetByID", "ID parameter is required")
		return
	}

	et, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, et); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventTypeHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	eventTypes, totalCount, err := h.service.GetAll(r.Context(), activeOnly, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, eventTypes, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *EventTypeHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "Update", "ID parameter is required")
		return
	}

	// Unknown fields are rejected so typos cannot silently no-op.
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var updates model.EventTypeUpdate
	if err := decoder.Decode(&updates); err != nil {
		h.writeBadRequest(w, "Update", "Invalid request body")
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *EventTypeHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "Delete", "ID parameter is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *EventTypeHandler) writeBadRequest(w http.ResponseWriter, handlerName, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *EventTypeHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *EventTypeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/event-types", h.Create)
	router.GET("/api/v1/event-types", h.GetAll)
	router.GET("/api/v1/event-types/id/:id", h.GetByID)
	router.PATCH("/api/v1/event-types/id/:id", h.Update)
	router.DELETE("/api/v1/event-types/id/:id", h.Delete)
}
