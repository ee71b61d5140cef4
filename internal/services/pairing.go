package services

import "fieldreport-backend/internal/models"

// PairEvidencias matches before/after shots by upload order: the i-th
// "previa" goes with the i-th "posterior". A side with no counterpart is
// left out.
func PairEvidencias(evidencias []models.Evidencia) [][2]models.Evidencia {
	var previas, posteriores []models.Evidencia
	for _, ev := range evidencias {
		switch ev.Tipo {
		case models.TipoPrevia:
			previas = append(previas, ev)
		case models.TipoPosterior:
			posteriores = append(posteriores, ev)
		}
	}

	n := len(previas)
	if len(posteriores) < n {
		n = len(posteriores)
	}
	pairs := make([][2]models.Evidencia, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, [2]models.Evidencia{previas[i], posteriores[i]})
	}
	return pairs
}
