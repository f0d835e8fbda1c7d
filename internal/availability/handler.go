package availability

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "meetly/pkg/http"
	"meetly/pkg/logger"
)

type SlotHandler struct {
	service AvailabilityService
	log     *logger.Logger
}

func NewSlotHandler(service AvailabilityService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "ListSlots", "ID parameter is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeBadRequest(w, "ListSlots", "date query parameter is required")
		return
	}

	slots, err := h.service.ListSlots(r.Context(), id, date)
	if err != nil {
		h.writeError(w, "ListSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "ListSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) writeBadRequest(w http.ResponseWriter, handlerName, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/event-types/id/:id/slots", h.ListSlots)
}
