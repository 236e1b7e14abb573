package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/gin-gonic/gin"
)

// SiteService is the content side of the API, implemented by site.Service.
type SiteService interface {
	CreateEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, in content.EntryInput, image *media.File) (content.Entry, error)
	GetEntry(ctx context.Context, kind content.Kind, id string) (content.Entry, error)
	ListEntries(ctx context.Context, kind content.Kind, ownerID string, limit int) ([]content.Entry, error)
	UpdateEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string, in content.EntryInput, image *media.File) (content.Entry, error)
	RemoveEntryImage(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string) (content.Entry, error)
	DeleteEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string) error

	GetHeader(ctx context.Context, ownerID string) (content.Header, error)
	CreateHeader(ctx context.Context, actor actorctx.Identity, navItems []content.NavItem, logo *media.File) (content.Header, error)
	UpdateHeader(ctx context.Context, actor actorctx.Identity, navItems []content.NavItem, logo *media.File) (content.Header, error)
	DeleteHeader(ctx context.Context, actor actorctx.Identity) error

	GetFooter(ctx context.Context, ownerID string) (content.Footer, error)
	UpsertFooter(ctx context.Context, actor actorctx.Identity, in content.FooterInput, logo, footerImage *media.File) (content.Footer, error)
	DeleteFooter(ctx context.Context, actor actorctx.Identity) error

	BookAppointment(ctx context.Context, req content.BookAppointmentRequest) (content.Appointment, error)
	ListAppointments(ctx context.Context, actor actorctx.Identity, status *content.AppointmentStatus, limit int) ([]content.Appointment, error)
	GetAppointment(ctx context.Context, actor actorctx.Identity, id string) (content.Appointment, error)
	UpdateAppointment(ctx context.Context, actor actorctx.Identity, id string, req content.UpdateAppointmentRequest) (content.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, actor actorctx.Identity, id string, req content.UpdateAppointmentStatusRequest) (content.Appointment, error)
	DeleteAppointment(ctx context.Context, actor actorctx.Identity, id string) error
}

type SiteHandler struct {
	svc     SiteService
	timeout time.Duration
}

func NewSiteHandler(svc SiteService) *SiteHandler {
	// uploads go through image processing and the object store
	return &SiteHandler{svc: svc, timeout: 30 * time.Second}
}

func actor(ctx *gin.Context) actorctx.Identity {
	id, _ := actorctx.IdentityFrom(ctx.Request.Context())
	return id
}

// formFile returns nil when the field is absent. The returned closer is never nil.
func formFile(ctx *gin.Context, field string) (*media.File, func(), error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, func() {}, media.ErrTooLarge
		}
		return nil, func() {}, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return fileFromHeader(fh, f), func() { _ = f.Close() }, nil
}

func respondFileError(ctx *gin.Context, field string, err error) {
	if errors.Is(err, media.ErrTooLarge) {
		RespondServiceError(ctx, err)
		return
	}
	RespondBadRequest(ctx, "Invalid form data", gin.H{"fields": []FieldError{{Field: field, Rule: "file", Message: "could not be read"}}})
}

func fileFromHeader(fh *multipart.FileHeader, f multipart.File) *media.File {
	return &media.File{Filename: fh.Filename, Size: fh.Size, Reader: f}
}

// navItemsFromForm reads the navItems field, sent as a JSON array string.
// A missing field yields nil.
func navItemsFromForm(ctx *gin.Context) ([]content.NavItem, bool) {
	raw, ok := ctx.GetPostForm("navItems")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, true
	}

	var items []content.NavItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		RespondBadRequest(ctx, "Invalid form data", gin.H{"fields": []FieldError{{Field: "navItems", Rule: "json", Message: "must be a JSON array"}}})
		return nil, false
	}
	if items == nil {
		items = []content.NavItem{}
	}
	return items, true
}

func limitFromQuery(ctx *gin.Context) (int, bool) {
	v := ctx.Query("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 100 {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []FieldError{{Field: "limit", Rule: "range", Message: "must be between 1 and 100"}}})
		return 0, false
	}
	return n, true
}

func respondPublic(ctx *gin.Context, payload gin.H) {
	payload["success"] = true
	RespondJSONWithETag(ctx, http.StatusOK, payload)
}

// Entries returns the route handlers for one entry kind.
func (h *SiteHandler) Entries(kind content.Kind) EntryRoutes {
	return EntryRoutes{h: h, kind: kind}
}

type EntryRoutes struct {
	h    *SiteHandler
	kind content.Kind
}

func (r EntryRoutes) List(ctx *gin.Context) {
	limit, ok := limitFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	items, err := r.h.svc.ListEntries(cctx, r.kind, ctx.Query("owner"), limit)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	respondPublic(ctx, gin.H{"items": items})
}

func (r EntryRoutes) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	e, err := r.h.svc.GetEntry(cctx, r.kind, ctx.Param("id"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	respondPublic(ctx, gin.H{"item": e})
}

func (r EntryRoutes) Create(ctx *gin.Context) {
	var in content.EntryInput
	if !BindForm(ctx, &in) {
		return
	}

	image, closeImage, err := formFile(ctx, "image")
	if err != nil {
		respondFileError(ctx, "image", err)
		return
	}
	defer closeImage()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	e, err := r.h.svc.CreateEntry(cctx, actor(ctx), r.kind, in, image)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, gin.H{"item": e})
}

func (r EntryRoutes) Update(ctx *gin.Context) {
	var in content.EntryInput
	if !BindForm(ctx, &in) {
		return
	}

	image, closeImage, err := formFile(ctx, "image")
	if err != nil {
		respondFileError(ctx, "image", err)
		return
	}
	defer closeImage()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	e, err := r.h.svc.UpdateEntry(cctx, actor(ctx), r.kind, ctx.Param("id"), in, image)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"item": e})
}

func (r EntryRoutes) RemoveImage(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	e, err := r.h.svc.RemoveEntryImage(cctx, actor(ctx), r.kind, ctx.Param("id"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"item": e})
}

func (r EntryRoutes) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), r.h.timeout)
	defer cancel()

	if err := r.h.svc.DeleteEntry(cctx, actor(ctx), r.kind, ctx.Param("id")); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Deleted"})
}

func (h *SiteHandler) GetHeader(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	hd, err := h.svc.GetHeader(cctx, ctx.Param("ownerId"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	respondPublic(ctx, gin.H{"header": hd})
}

func (h *SiteHandler) CreateHeader(ctx *gin.Context) {
	h.writeHeader(ctx, http.StatusCreated, h.svc.CreateHeader)
}

func (h *SiteHandler) UpdateHeader(ctx *gin.Context) {
	h.writeHeader(ctx, http.StatusOK, h.svc.UpdateHeader)
}

type headerWriter func(ctx context.Context, actor actorctx.Identity, navItems []content.NavItem, logo *media.File) (content.Header, error)

func (h *SiteHandler) writeHeader(ctx *gin.Context, status int, write headerWriter) {
	nav, ok := navItemsFromForm(ctx)
	if !ok {
		return
	}

	logo, closeLogo, err := formFile(ctx, "logo")
	if err != nil {
		respondFileError(ctx, "logo", err)
		return
	}
	defer closeLogo()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	hd, err := write(cctx, actor(ctx), nav, logo)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, status, gin.H{"header": hd})
}

func (h *SiteHandler) DeleteHeader(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteHeader(cctx, actor(ctx)); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Header deleted"})
}

func (h *SiteHandler) GetFooter(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	f, err := h.svc.GetFooter(cctx, ctx.Param("ownerId"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	respondPublic(ctx, gin.H{"footer": f})
}

func (h *SiteHandler) UpsertFooter(ctx *gin.Context) {
	var in content.FooterInput
	if !BindForm(ctx, &in) {
		return
	}

	logo, closeLogo, err := formFile(ctx, "logo")
	if err != nil {
		respondFileError(ctx, "logo", err)
		return
	}
	defer closeLogo()

	footerImage, closeFooterImage, err := formFile(ctx, "footerImage")
	if err != nil {
		respondFileError(ctx, "footerImage", err)
		return
	}
	defer closeFooterImage()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	f, err := h.svc.UpsertFooter(cctx, actor(ctx), in, logo, footerImage)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"footer": f})
}

func (h *SiteHandler) DeleteFooter(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteFooter(cctx, actor(ctx)); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Footer deleted"})
}
