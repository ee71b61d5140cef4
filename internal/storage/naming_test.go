package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldreport-backend/internal/storage"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "informe-tecnico-abc123", storage.Slugify("Informe técnico ABC123"))
	assert.Equal(t, "nino-con-espanol", storage.Slugify("  Niño con español  "))
	assert.Equal(t, "a-b-c", storage.Slugify("a---b___c"))
}

func TestReportObjectPath(t *testing.T) {
	path := storage.ReportObjectPath("Informe técnico s-1", []byte("contenido"))

	assert.True(t, strings.HasPrefix(path, storage.FolderInformes+"/informe-tecnico-s-1-"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))
}

func TestReportObjectPath_ContentAddressed(t *testing.T) {
	a := storage.ReportObjectPath("Informe", []byte("uno"))
	b := storage.ReportObjectPath("Informe", []byte("dos"))
	again := storage.ReportObjectPath("Informe", []byte("uno"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}
