package conversion

import (
	"strings"
	"time"

	"conference-plugins/config"
)

const (
	// StatusPending marks an attachment submitted for conversion.
	StatusPending = "pending"
	// StatusFinished marks an attachment whose PDF has been attached.
	StatusFinished = "finished"
	// StatusFailed marks an attachment whose submission was given up.
	StatusFailed = "failed"

	// DefaultStatusTTL is how long a pending marker lives.
	DefaultStatusTTL = time.Hour
	finishedTTL      = 15 * time.Minute

	FieldConvertToPDF = "convert_to_pdf"
)

type Settings struct {
	ServerURL       string
	ValidExtensions []string
	CallbackURL     string
	Secret          string
	StatusTTL       time.Duration
	RequestTimeout  time.Duration
}

// NewSettings normalizes the extension list and fills defaults.
func NewSettings(s Settings) Settings {
	s.ValidExtensions = config.NormalizeExtensions(s.ValidExtensions)
	if s.StatusTTL <= 0 {
		s.StatusTTL = DefaultStatusTTL
	}
	return s
}

// Convertible reports whether files with extension ext can be converted.
// The comparison ignores case and a leading dot.
func (s Settings) Convertible(ext string) bool {
	ext = strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return false
	}
	for _, valid := range s.ValidExtensions {
		if valid == ext {
			return true
		}
	}
	return false
}
