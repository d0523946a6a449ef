package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/engagic/core/pkg/models"
)

// CityRepo persists the administratively-seeded city roster. Cities are
// never deleted while meetings reference them.
type CityRepo struct{}

func NewCityRepo() *CityRepo { return &CityRepo{} }

// Upsert inserts or updates a city. Status and created_at are preserved on
// conflict — only UpsertSeed may intentionally change status; ordinary
// re-syncs never touch it.
func (r *CityRepo) Upsert(ctx context.Context, q Querier, c models.City) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cities (banana, name, state, vendor, slug, county, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (banana) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			vendor = excluded.vendor,
			slug = excluded.slug,
			county = excluded.county
	`, c.Banana, c.Name, c.State, string(c.Vendor), c.Slug, c.County, string(c.Status))
	if err != nil {
		return fmt.Errorf("upsert city %s: %w", c.Banana, err)
	}

	for _, z := range c.Zipcodes {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO zipcodes (banana, zipcode, is_primary)
			VALUES ($1, $2, $3)
			ON CONFLICT (banana, zipcode) DO UPDATE SET is_primary = excluded.is_primary
		`, c.Banana, z.Zipcode, z.IsPrimary); err != nil {
			return fmt.Errorf("upsert zipcode %s/%s: %w", c.Banana, z.Zipcode, err)
		}
	}
	return nil
}

// UpsertSeed is Upsert plus an explicit status write, used by the roster
// loader at startup: a city added, removed, or reactivated in cities.yaml
// must have its status change take effect, unlike an ordinary sync.
func (r *CityRepo) UpsertSeed(ctx context.Context, q Querier, c models.City) error {
	if err := r.Upsert(ctx, q, c); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `UPDATE cities SET status = $2 WHERE banana = $1`, c.Banana, string(c.Status))
	if err != nil {
		return fmt.Errorf("set status for city %s: %w", c.Banana, err)
	}
	return nil
}

// Get returns a single city by banana, or ErrCityNotFound if absent.
func (r *CityRepo) Get(ctx context.Context, q Querier, banana string) (models.City, error) {
	row := q.QueryRowContext(ctx, `
		SELECT banana, name, state, vendor, slug, county, status, created_at
		FROM cities WHERE banana = $1
	`, banana)

	var c models.City
	var vendor, status string
	var county sql.NullString
	if err := row.Scan(&c.Banana, &c.Name, &c.State, &vendor, &c.Slug, &county, &status, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.City{}, ErrCityNotFound
		}
		return models.City{}, err
	}
	c.Vendor = models.Vendor(vendor)
	c.Status = models.CityStatus(status)
	if county.Valid {
		c.County = county.String
	}

	zrows, err := q.QueryContext(ctx, `SELECT zipcode, is_primary FROM zipcodes WHERE banana = $1`, banana)
	if err != nil {
		return models.City{}, fmt.Errorf("load zipcodes for %s: %w", banana, err)
	}
	defer zrows.Close()
	for zrows.Next() {
		var z models.Zipcode
		z.Banana = banana
		if err := zrows.Scan(&z.Zipcode, &z.IsPrimary); err != nil {
			return models.City{}, err
		}
		c.Zipcodes = append(c.Zipcodes, z)
	}
	return c, nil
}

// ListActive returns every city with status=active, for the fetcher's sync
// scheduler to iterate over.
func (r *CityRepo) ListActive(ctx context.Context, q Querier) ([]models.City, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT banana, name, state, vendor, slug, county, status, created_at
		FROM cities WHERE status = $1 ORDER BY banana
	`, string(models.CityStatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active cities: %w", err)
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		var vendor, status string
		var county sql.NullString
		if err := rows.Scan(&c.Banana, &c.Name, &c.State, &vendor, &c.Slug, &county, &status, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Vendor = models.Vendor(vendor)
		c.Status = models.CityStatus(status)
		if county.Valid {
			c.County = county.String
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// ErrCityNotFound is returned by Get through errors.Is when no row matches.
var ErrCityNotFound = errors.New("city not found")
