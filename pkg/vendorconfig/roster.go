// Package vendorconfig loads the administratively-seeded city roster from a
// YAML file and applies it to the store at startup.
package vendorconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/engagic/core/pkg/config"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
	"gopkg.in/yaml.v3"
)

// Roster is the on-disk shape of cities.yaml: a flat list of cities keyed
// by banana, each carrying the fields StoreMeetingFromSync's callers need
// to pick the right adapter and apply the date filter.
type Roster struct {
	Cities []RosterCity `yaml:"cities"`
}

// RosterCity mirrors models.City's administratively-seeded fields.
type RosterCity struct {
	Banana   string   `yaml:"banana"`
	Name     string   `yaml:"name"`
	State    string   `yaml:"state"`
	Vendor   string   `yaml:"vendor"`
	Slug     string   `yaml:"slug"`
	County   string   `yaml:"county"`
	Status   string   `yaml:"status"`
	Zipcodes []string `yaml:"zipcodes"`
}

// Load reads and parses a roster file, expanding ${VAR} references via
// config.ExpandEnv before unmarshaling (a roster checked into source
// control may reference a per-environment vendor slug or token).
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	data = config.ExpandEnv(data)

	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	for i, c := range r.Cities {
		if c.Banana == "" {
			return nil, fmt.Errorf("roster %s: entry %d missing banana", path, i)
		}
		if c.Vendor == "" {
			return nil, fmt.Errorf("roster %s: city %s missing vendor", path, c.Banana)
		}
	}
	return &r, nil
}

// Apply upserts every roster city into the store via UpsertSeed, which
// (unlike an ordinary sync upsert) is allowed to change status — a city
// removed from cities.yaml should stop being considered for sync even
// though historical meetings referencing it are kept.
func Apply(ctx context.Context, st *store.Store, r *Roster) (int, error) {
	applied := 0
	for _, c := range r.Cities {
		status := models.CityStatus(c.Status)
		if status == "" {
			status = models.CityStatusActive
		}

		zipcodes := make([]models.Zipcode, 0, len(c.Zipcodes))
		for i, z := range c.Zipcodes {
			zipcodes = append(zipcodes, models.Zipcode{Banana: c.Banana, Zipcode: z, IsPrimary: i == 0})
		}

		err := st.Cities.UpsertSeed(ctx, st.DB(), models.City{
			Banana:   c.Banana,
			Name:     c.Name,
			State:    c.State,
			Vendor:   models.Vendor(c.Vendor),
			Slug:     c.Slug,
			County:   c.County,
			Status:   status,
			Zipcodes: zipcodes,
		})
		if err != nil {
			return applied, fmt.Errorf("apply roster entry %s: %w", c.Banana, err)
		}
		applied++
	}
	return applied, nil
}
