package handlers

import (
	"net/http"

	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/gin-gonic/gin"
)

func (h *SiteHandler) BookAppointment(ctx *gin.Context) {
	var req content.BookAppointmentRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	a, err := h.svc.BookAppointment(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, gin.H{
		"message":     "Appointment requested",
		"appointment": a,
	})
}

func (h *SiteHandler) ListAppointments(ctx *gin.Context) {
	limit, ok := limitFromQuery(ctx)
	if !ok {
		return
	}

	var status *content.AppointmentStatus
	if v := ctx.Query("status"); v != "" {
		s := content.AppointmentStatus(v)
		switch s {
		case content.StatusPending, content.StatusAccepted, content.StatusRejected:
			status = &s
		default:
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []FieldError{{Field: "status", Rule: "oneof", Param: "pending accepted rejected", Message: validation.Message("oneof", "pending accepted rejected")}}})
			return
		}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.svc.ListAppointments(cctx, actor(ctx), status, limit)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"appointments": items})
}

func (h *SiteHandler) GetAppointment(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	a, err := h.svc.GetAppointment(cctx, actor(ctx), ctx.Param("id"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"appointment": a})
}

func (h *SiteHandler) UpdateAppointment(ctx *gin.Context) {
	var req content.UpdateAppointmentRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	a, err := h.svc.UpdateAppointment(cctx, actor(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Appointment updated", "appointment": a})
}

func (h *SiteHandler) UpdateAppointmentStatus(ctx *gin.Context) {
	var req content.UpdateAppointmentStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	a, err := h.svc.UpdateAppointmentStatus(cctx, actor(ctx), ctx.Param("id"), req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"appointment": a})
}

func (h *SiteHandler) DeleteAppointment(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteAppointment(cctx, actor(ctx), ctx.Param("id")); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Appointment deleted"})
}
