package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/services"
)

func ev(tipo, nombre string) models.Evidencia {
	return models.Evidencia{Tipo: tipo, NombreOriginal: nombre}
}

func TestPairEvidencias_Positional(t *testing.T) {
	evidencias := []models.Evidencia{
		ev(models.TipoPrevia, "rack_a"),
		ev(models.TipoPosterior, "rack_z"),
		ev(models.TipoPrevia, "rack_b"),
		ev(models.TipoPosterior, "rack_y"),
	}

	pairs := services.PairEvidencias(evidencias)

	// Pairing is by upload index within each kind, not by name.
	assert.Len(t, pairs, 2)
	assert.Equal(t, "rack_a", pairs[0][0].NombreOriginal)
	assert.Equal(t, "rack_z", pairs[0][1].NombreOriginal)
	assert.Equal(t, "rack_b", pairs[1][0].NombreOriginal)
	assert.Equal(t, "rack_y", pairs[1][1].NombreOriginal)
}

func TestPairEvidencias_UnevenCounts(t *testing.T) {
	evidencias := []models.Evidencia{
		ev(models.TipoPrevia, "a"),
		ev(models.TipoPrevia, "b"),
		ev(models.TipoPrevia, "c"),
		ev(models.TipoPosterior, "x"),
	}

	pairs := services.PairEvidencias(evidencias)

	assert.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0][0].NombreOriginal)
	assert.Equal(t, "x", pairs[0][1].NombreOriginal)
}

func TestPairEvidencias_Empty(t *testing.T) {
	assert.Empty(t, services.PairEvidencias(nil))
	assert.Empty(t, services.PairEvidencias([]models.Evidencia{ev(models.TipoPrevia, "solo")}))
}
