package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{" .PPTX", "doc", "DOC", "", ".", "odp ", "pptx"})
	assert.Equal(t, []string{"doc", "odp", "pptx"}, got)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONVERSION_VALID_EXTENSIONS", "Docx;.odt\nPDF")
	t.Setenv("RAVEM_TIMEOUT", "5s")
	t.Setenv("TASK_MAX_RETRIES", "not-a-number")
	t.Setenv("CRON_ENABLED", "false")

	cfg := LoadConfig()

	assert.Equal(t, []string{"docx", "odt", "pdf"}, cfg.Conversion.ValidExtensions)
	assert.Equal(t, 5*time.Second, cfg.Ravem.Timeout)
	assert.Equal(t, 5, cfg.Tasks.MaxRetries)
	assert.False(t, cfg.Cron.Enabled)
	assert.Equal(t, time.Hour, cfg.Conversion.StatusTTL)
	assert.Equal(t, 3, cfg.Tasks.MaxRequeues)
	assert.Equal(t, 2*time.Minute, cfg.Tasks.TaskTimeout)
}

func TestValidateRequiresConversionSecret(t *testing.T) {
	t.Setenv("CONVERSION_SECRET", "")
	cfg := LoadConfig()
	assert.Empty(t, cfg.Conversion.Secret, "no built-in default")
	assert.ErrorIs(t, cfg.Validate(), ErrWeakSecret)

	cfg.Conversion.Secret = "change-me"
	assert.ErrorIs(t, cfg.Validate(), ErrWeakSecret)

	cfg.Conversion.Secret = strings.Repeat("k", MinSecretLength)
	assert.NoError(t, cfg.Validate())
}
