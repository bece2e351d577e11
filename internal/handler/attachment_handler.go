package handler

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/events"
	"conference-plugins/internal/reqstate"
	"conference-plugins/internal/services"
	"conference-plugins/internal/transport/httpdto"
	plugin_errors "conference-plugins/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AttachmentService interface {
	UploadFiles(ctx context.Context, input services.UploadInput) ([]attachment.Attachment, error)
	AddLink(ctx context.Context, folderID uuid.UUID, title, link string) (attachment.Attachment, error)
	Get(ctx context.Context, id uuid.UUID) (attachment.Attachment, error)
	List(ctx context.Context, folderID uuid.UUID) ([]attachment.Attachment, error)
}

type FieldCollector interface {
	CollectFields(ctx context.Context, form string) []events.Field
}

type PendingRenderer interface {
	RenderPending(ctx context.Context, a *attachment.Attachment, topLevel, hasLabel bool) (template.HTML, error)
}

type URLResolver interface {
	FileURL(key string) string
}

type AttachmentHandler struct {
	service  AttachmentService
	fields   FieldCollector
	renderer PendingRenderer
	urls     URLResolver
}

func NewAttachmentHandler(service AttachmentService, fields FieldCollector, renderer PendingRenderer, urls URLResolver) *AttachmentHandler {
	return &AttachmentHandler{service: service, fields: fields, renderer: renderer, urls: urls}
}

// UploadForm lists the fields of the file upload form, including those
// contributed by plugins.
func (h *AttachmentHandler) UploadForm(c *gin.Context) {
	if _, ok := folderID(c); !ok {
		return
	}
	fields := h.fields.CollectFields(c.Request.Context(), events.FormAddAttachmentFiles)
	if fields == nil {
		fields = []events.Field{}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AttachmentFormResponse{
		Form:   events.FormAddAttachmentFiles,
		Fields: fields,
	}))
}

func (h *AttachmentHandler) Upload(c *gin.Context) {
	folder, ok := folderID(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid multipart form", httpdto.CodeInvalidRequest))
		return
	}

	values := make(map[string]string, len(form.Value))
	for name, v := range form.Value {
		if len(v) > 0 {
			values[name] = v[0]
		}
	}

	var files []services.UploadedFile
	for _, header := range form.File["files"] {
		if header.Size > services.MaxFileSize {
			_ = c.Error(plugin_errors.ErrTooLarge)
			return
		}
		f, err := header.Open()
		if err != nil {
			_ = c.Error(err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			_ = c.Error(err)
			return
		}
		files = append(files, services.UploadedFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	created, err := h.service.UploadFiles(c.Request.Context(), services.UploadInput{
		FolderID: folder,
		Form:     events.Form{Values: values},
		Files:    files,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.UploadResponse{
		Attachments: created,
		Messages:    reqstate.From(c.Request.Context()).Flashes(),
	}))
}

func (h *AttachmentHandler) AddLink(c *gin.Context) {
	folder, ok := folderID(c)
	if !ok {
		return
	}
	var req httpdto.AddLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	a, err := h.service.AddLink(c.Request.Context(), folder, req.Title, req.Link)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(a))
}

func (h *AttachmentHandler) List(c *gin.Context) {
	folder, ok := folderID(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), folder)
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]httpdto.AttachmentResponse, 0, len(items))
	for i := range items {
		resp, err := h.present(c, &items[i], false)
		if err != nil {
			_ = c.Error(err)
			return
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

// GetByID returns one attachment. The pending_banner is set while a PDF
// conversion of the file is in flight.
func (h *AttachmentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", httpdto.CodeInvalidRequest))
		return
	}
	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp, err := h.present(c, &a, true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *AttachmentHandler) present(c *gin.Context, a *attachment.Attachment, topLevel bool) (httpdto.AttachmentResponse, error) {
	resp := httpdto.AttachmentResponse{Attachment: *a}
	if a.IsFile() && h.urls != nil {
		resp.DownloadURL = h.urls.FileURL(a.File.StorageKey)
	}
	if h.renderer == nil {
		return resp, nil
	}
	hasLabel, _ := strconv.ParseBool(c.Query("has_label"))
	banner, err := h.renderer.RenderPending(c.Request.Context(), a, topLevel, hasLabel)
	if err != nil {
		return resp, err
	}
	resp.PendingBanner = banner
	return resp, nil
}

func folderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid folder id", httpdto.CodeInvalidRequest))
		return uuid.Nil, false
	}
	return id, true
}
