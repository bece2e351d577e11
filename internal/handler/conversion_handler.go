package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"conference-plugins/internal/conversion"
	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

const maxCheckIDs = 200

type ConversionFinisher interface {
	Finish(ctx context.Context, res conversion.Result) (*attachment.Attachment, error)
	Check(ctx context.Context, ids []string) (conversion.CheckResult, error)
}

type ConversionHandler struct {
	finisher ConversionFinisher
}

func NewConversionHandler(finisher ConversionFinisher) *ConversionHandler {
	return &ConversionHandler{finisher: finisher}
}

// Finished receives the result of a conversion from the conversion server.
// The server only understands a plain "ok" reply.
func (h *ConversionHandler) Finished(c *gin.Context) {
	res := conversion.Result{
		Token:  c.PostForm("directory"),
		Status: c.PostForm("status"),
	}
	if header, err := c.FormFile("content"); err == nil {
		f, err := header.Open()
		if err != nil {
			_ = c.Error(err)
			return
		}
		res.Content, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			_ = c.Error(err)
			return
		}
	}

	_, err := h.finisher.Finish(c.Request.Context(), res)
	if errors.Is(err, conversion.ErrInvalidToken) {
		c.String(http.StatusBadRequest, "invalid token")
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// Check groups the requested attachment ids by conversion state. Ids come
// as repeated ?id= parameters or one comma separated list.
func (h *ConversionHandler) Check(c *gin.Context) {
	var ids []string
	for _, raw := range c.QueryArray("id") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) > maxCheckIDs {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("too many ids", httpdto.CodeInvalidRequest))
		return
	}
	res, err := h.finisher.Check(c.Request.Context(), ids)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}
