package pdf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fieldreport-backend/internal/pdf"
)

func TestFormatFechaBogota(t *testing.T) {
	// 2024-08-02 20:04 UTC is 15:04 in Bogotá.
	utc := time.Date(2024, 8, 2, 20, 4, 0, 0, time.UTC)
	assert.Equal(t, "viernes, 2 de agosto de 2024, 3:04 p. m.", pdf.FormatFechaBogota(utc))
}

func TestFormatFechaBogota_Morning(t *testing.T) {
	// 2026-01-05 14:30 UTC is 09:30 in Bogotá.
	utc := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "lunes, 5 de enero de 2026, 9:30 a. m.", pdf.FormatFechaBogota(utc))
}

func TestFormatFechaBogota_Midnight(t *testing.T) {
	// 05:00 UTC is midnight in Bogotá; the 12-hour clock shows 12, not 0.
	utc := time.Date(2026, 1, 5, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "lunes, 5 de enero de 2026, 12:00 a. m.", pdf.FormatFechaBogota(utc))
}
