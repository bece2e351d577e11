package httpdto

import (
	"html/template"

	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/events"
)

type AttachmentFormResponse struct {
	Form   string         `json:"form"`
	Fields []events.Field `json:"fields"`
}

type AttachmentResponse struct {
	attachment.Attachment
	DownloadURL   string        `json:"download_url,omitempty"`
	PendingBanner template.HTML `json:"pending_banner,omitempty"`
}

type UploadResponse struct {
	Attachments []attachment.Attachment `json:"attachments"`
	Messages    []string                `json:"messages,omitempty"`
}

type AddLinkRequest struct {
	Title string `json:"title"`
	Link  string `json:"link" binding:"required"`
}
