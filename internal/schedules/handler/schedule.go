package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"meetly/internal/schedules/service"
	httputil "meetly/pkg/http"
	"meetly/pkg/logger"
	"meetly/pkg/model"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

type replaceWeeklyRequest struct {
	Weekly []model.WeeklyWindow `json:"weekly"`
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var sc model.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		h.writeBadRequest(w, "Create", "Invalid request body")
		return
	}

	if err := h.service.Create(r.Context(), &sc); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, sc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "GetByID", "ID parameter is required")
		return
	}

	sc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, sc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	schedules, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, schedules, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "Update", "ID parameter is required")
		return
	}

	var updates model.ScheduleUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadRequest(w, "Update", "Invalid request body")
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) ReplaceWeekly(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "ReplaceWeekly", "ID parameter is required")
		return
	}

	var req replaceWeeklyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "ReplaceWeekly", "Invalid request body")
		return
	}

	if err := h.service.ReplaceWeekly(r.Context(), id, req.Weekly); err != nil {
		h.writeError(w, "ReplaceWeekly", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) SetOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "SetOverride", "ID parameter is required")
		return
	}

	var override model.DateOverride
	if err := json.NewDecoder(r.Body).Decode(&override); err != nil {
		h.writeBadRequest(w, "SetOverride", "Invalid request body")
		return
	}

	if err := h.service.SetDateOverride(r.Context(), id, override); err != nil {
		h.writeError(w, "SetOverride", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) RemoveOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	date := ps.ByName("date")
	if id == "" || date == "" {
		h.writeBadRequest(w, "RemoveOverride", "ID and date parameters are required")
		return
	}

	if err := h.service.RemoveDateOverride(r.Context(), id, date); err != nil {
		h.writeError(w, "RemoveOverride", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *ScheduleHandler) writeBadRequest(w http.ResponseWriter, handlerName, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedules", h.Create)
	router.GET("/api/v1/schedules", h.GetAll)
	router.GET("/api/v1/schedules/id/:id", h.GetByID)
	router.PATCH("/api/v1/schedules/id/:id", h.Update)
	router.PUT("/api/v1/schedules/id/:id/weekly", h.ReplaceWeekly)
	router.PUT("/api/v1/schedules/id/:id/overrides", h.SetOverride)
	router.DELETE("/api/v1/schedules/id/:id/overrides/:date", h.RemoveOverride)
	router.DELETE("/api/v1/schedules/id/:id", h.Delete)
}
