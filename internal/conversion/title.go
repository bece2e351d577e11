package conversion

import (
	"path"
	"strings"

	"conference-plugins/internal/domain/attachment"
)

// PDFTitle is the title given to the PDF produced from a. A title ending
// with the source file extension gets it swapped for .pdf.
func PDFTitle(a *attachment.Attachment) string {
	if a.File == nil {
		return a.Title
	}
	ext := strings.ToLower(path.Ext(a.File.Filename))
	if ext != "" && strings.HasSuffix(strings.ToLower(a.Title), ext) {
		return a.Title[:len(a.Title)-len(ext)] + ".pdf"
	}
	return a.Title
}

// PDFFilename is the stored filename of the PDF produced from a.
func PDFFilename(a *attachment.Attachment) string {
	name := a.File.Filename
	return strings.TrimSuffix(name, path.Ext(name)) + ".pdf"
}
