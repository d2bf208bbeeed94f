package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"freestuffmap/internal/database"
)

// Writer is the persistence surface a scraper needs. Upsert is the
// authoritative merge-on-conflict strategy; InsertIgnore is kept for sources
// that only ever append and must not clobber later edits.
type Writer interface {
	Upsert(ctx context.Context, c Candidate) error
	InsertIgnore(ctx context.Context, c Candidate) error
}

var (
	ErrEmptyTitle      = errors.New("listing: empty title")
	ErrNoAvailableFrom = errors.New("listing: missing available_from")
)

type Store struct {
	db     database.DB
	logger *log.Logger
}

func NewStore(db database.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the listings table and its natural-key index if they
// do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nil store/db")
	}
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS free_listings (
			id              BIGSERIAL PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT,
			location_lat    DOUBLE PRECISION,
			location_lng    DOUBLE PRECISION,
			category        TEXT NOT NULL DEFAULT 'Items'
				CHECK (category IN ('Events','Food','Items','Services')),
			available_from  TIMESTAMPTZ NOT NULL,
			available_until TIMESTAMPTZ,
			url             TEXT,
			time_details    TEXT,
			source          TEXT NOT NULL DEFAULT '',
			contact_info    TEXT,
			edit_code       TEXT,
			interest_count  INTEGER NOT NULL DEFAULT 0,
			status          TEXT NOT NULL DEFAULT 'available',
			last_verified   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create free_listings: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS free_listings_natural_key
		ON free_listings (title, available_from, source)`)
	if err != nil {
		return fmt.Errorf("create natural key index: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS free_listings_available_from
		ON free_listings (available_from)`)
	if err != nil {
		return fmt.Errorf("create available_from index: %w", err)
	}
	return nil
}

func (s *Store) validate(c *Candidate) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return ErrEmptyTitle
	}
	if c.AvailableFrom.IsZero() {
		return ErrNoAvailableFrom
	}
	c.Category = NormalizeCategory(c.Category)
	c.Source = strings.TrimSpace(c.Source)
	return nil
}

// Upsert writes the candidate, merging on the natural key: conflicting rows
// keep their identity and submission-only columns while the mutable field set
// is overwritten and last_verified is bumped.
func (s *Store) Upsert(ctx context.Context, c Candidate) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nil store/db")
	}
	if err := s.validate(&c); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO free_listings (
			title, description, location_lat, location_lng, category,
			available_from, available_until, url, time_details, source, last_verified
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (title, available_from, source) DO UPDATE SET
			description     = EXCLUDED.description,
			location_lat    = EXCLUDED.location_lat,
			location_lng    = EXCLUDED.location_lng,
			category        = EXCLUDED.category,
			available_until = EXCLUDED.available_until,
			url             = EXCLUDED.url,
			time_details    = EXCLUDED.time_details,
			last_verified   = NOW()`,
		c.Title,
		nullableText(c.Description),
		c.Lat,
		c.Lng,
		string(c.Category),
		c.AvailableFrom.UTC(),
		c.AvailableUntil,
		nullableText(c.URL),
		nullableText(c.TimeDetails),
		c.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", c.Title, err)
	}
	return nil
}

// InsertIgnore writes the candidate only if its natural key is absent.
func (s *Store) InsertIgnore(ctx context.Context, c Candidate) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nil store/db")
	}
	if err := s.validate(&c); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO free_listings (
			title, description, location_lat, location_lng, category,
			available_from, available_until, url, time_details, source, last_verified
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (title, available_from, source) DO NOTHING`,
		c.Title,
		nullableText(c.Description),
		c.Lat,
		c.Lng,
		string(c.Category),
		c.AvailableFrom.UTC(),
		c.AvailableUntil,
		nullableText(c.URL),
		nullableText(c.TimeDetails),
		c.Source,
	)
	if err != nil {
		return fmt.Errorf("insert %q: %w", c.Title, err)
	}
	return nil
}

// SaveAll persists a scraper's batch one candidate at a time through save.
// A failing candidate is logged with its title and skipped; the rest of the
// batch still goes through.
func SaveAll(ctx context.Context, save func(context.Context, Candidate) error, items []Candidate, logger *log.Logger) {
	for _, it := range items {
		if err := save(ctx, it); err != nil {
			if logger != nil {
				logger.Printf("save listing %q: %v", it.Title, err)
			}
		}
	}
}

// Filter narrows List results; zero values mean "no constraint".
type Filter struct {
	Search     string
	Categories []Category
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}

// List returns available listings newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Listing, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("nil store/db")
	}

	query := `
		SELECT id, title, COALESCE(description,''), location_lat, location_lng,
			category, available_from, available_until, COALESCE(url,''),
			COALESCE(time_details,''), source, COALESCE(contact_info,''),
			interest_count, status, last_verified, created_at
		FROM free_listings
		WHERE status = 'available'`
	args := []any{}
	n := 1

	if q := strings.TrimSpace(f.Search); q != "" {
		query += fmt.Sprintf(" AND (LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", n, n)
		args = append(args, "%"+strings.ToLower(q)+"%")
		n++
	}
	if len(f.Categories) > 0 {
		ph := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			ph = append(ph, fmt.Sprintf("$%d", n))
			args = append(args, string(c))
			n++
		}
		query += " AND category IN (" + strings.Join(ph, ", ") + ")"
	}
	if f.StartDate != nil {
		query += fmt.Sprintf(" AND available_from >= $%d", n)
		args = append(args, f.StartDate.UTC())
		n++
	}
	if f.EndDate != nil {
		query += fmt.Sprintf(" AND available_from <= $%d", n)
		args = append(args, f.EndDate.UTC())
		n++
	}

	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Listing, 0, 64)
	for rows.Next() {
		var l Listing
		var cat string
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Description, &l.Lat, &l.Lng,
			&cat, &l.AvailableFrom, &l.AvailableUntil, &l.URL,
			&l.TimeDetails, &l.Source, &l.ContactInfo,
			&l.InterestCount, &l.Status, &l.LastVerified, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		l.Category = Category(cat)
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullableText(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
