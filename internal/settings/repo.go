package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"akstore/internal/db"
	"akstore/internal/domain/settings"
)

// Repo stores the single store_settings row (id = 1).
type Repo struct {
	db *db.DB
}

func NewRepo(d *db.DB) *Repo {
	return &Repo{db: d}
}

// Get returns empty settings when the row has never been written.
func (r *Repo) Get(ctx context.Context) (settings.StoreSettings, error) {
	var (
		s      settings.StoreSettings
		slides string
	)
	err := r.db.QueryRow(ctx, `SELECT logo, slides FROM store_settings WHERE id = 1`).Scan(&s.Logo, &slides)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.StoreSettings{Slides: []settings.Slide{}}, nil
	}
	if err != nil {
		return settings.StoreSettings{}, err
	}
	if err := json.Unmarshal([]byte(slides), &s.Slides); err != nil {
		return settings.StoreSettings{}, err
	}
	if s.Slides == nil {
		s.Slides = []settings.Slide{}
	}
	return s, nil
}

// Update replaces logo and slides wholesale. Slides without an id get one.
func (r *Repo) Update(ctx context.Context, s settings.StoreSettings) (settings.StoreSettings, error) {
	if err := Save(ctx, r.db, s); err != nil {
		return settings.StoreSettings{}, err
	}
	return r.Get(ctx)
}

func (r *Repo) Exists(ctx context.Context) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM store_settings WHERE id = 1`).Scan(&n)
	return n > 0, err
}

// Save upserts the settings row.
func Save(ctx context.Context, q db.Querier, s settings.StoreSettings) error {
	slides := make([]settings.Slide, 0, len(s.Slides))
	for _, sl := range s.Slides {
		if strings.TrimSpace(sl.ID) == "" {
			sl.ID = "slide-" + uuid.NewString()
		}
		slides = append(slides, sl)
	}
	b, err := json.Marshal(slides)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO store_settings (id, logo, slides) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET logo = excluded.logo, slides = excluded.slides
	`, s.Logo, string(b))
	return err
}
