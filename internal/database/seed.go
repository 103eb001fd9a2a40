package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// seedItem is one gated content item inserted by Seed.
type seedItem struct {
	kind    string
	title   string
	slug    string
	excerpt string
	body    string
}

// Seed populates the database with initial development content.
// It mirrors the gated pieces the marketing site launched with: the CAC
// guide lead magnet plus two gated articles. No-op if content exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM content").Scan(&count); err != nil {
		return fmt.Errorf("seed check content: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	items := []seedItem{
		{
			kind:    "resource",
			title:   "CAC Sostenible",
			slug:    "cac-sostenible",
			excerpt: "## El problema\n\nSi más del 60% de tu revenue viene de paid, tu CAC es rehén de la subasta.",
			body:    "## El framework completo\n\nChecklist de auditoría y plan de 30 días para diversificar adquisición.",
		},
		{
			kind:    "article",
			title:   "Meseta de Crecimiento",
			slug:    "meseta-de-crecimiento",
			excerpt: "Por qué el crecimiento se estanca y cómo detectarlo a tiempo.",
			body:    "## Diagnóstico\n\nLas tres señales de una meseta y el plan para salir de ella.",
		},
		{
			kind:    "article",
			title:   "David vs Goliat",
			slug:    "david-vs-goliat",
			excerpt: "Cómo competir en paid contra presupuestos diez veces mayores.",
			body:    "## La estrategia\n\nSegmentos que los grandes ignoran y cómo ganarlos.",
		},
	}

	for _, it := range items {
		_, err := db.Exec(`
			INSERT INTO content (kind, title, slug, excerpt, body)
			VALUES ($1, $2, $3, $4, $5)
		`, it.kind, it.title, it.slug, it.excerpt, it.body)
		if err != nil {
			return fmt.Errorf("seed insert %q: %w", it.slug, err)
		}
	}

	slog.Info("database seeded with development content", "items", len(items))
	return nil
}
