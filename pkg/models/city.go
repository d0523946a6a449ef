// Package models holds the sum-typed records engagic's repositories read and
// write. They replace the dynamic, dict-shaped results a scripting-language
// reference implementation would pass around: every field that can be
// missing is an explicit pointer or zero value, never an untyped map entry.
package models

import "time"

// Vendor identifies the agenda-management platform a city runs on.
type Vendor string

// Supported vendor platforms.
const (
	VendorLegistar   Vendor = "legistar"
	VendorPrimeGov   Vendor = "primegov"
	VendorGranicus   Vendor = "granicus"
	VendorCivicClerk Vendor = "civicclerk"
	VendorNovusAgenda Vendor = "novusagenda"
	VendorCivicPlus  Vendor = "civicplus"
	VendorCustom     Vendor = "custom"
)

// CityStatus reflects whether a city is actively synced.
type CityStatus string

const (
	CityStatusActive   CityStatus = "active"
	CityStatusPaused   CityStatus = "paused"
	CityStatusArchived CityStatus = "archived"
)

// City is the administrative root of engagic's data model. Its primary key,
// Banana, is vendor-agnostic so the same city can migrate vendors without a
// change of identity.
type City struct {
	Banana      string
	Name        string
	State       string
	Vendor      Vendor
	Slug        string
	County      string // optional, empty when unknown
	Status      CityStatus
	Zipcodes    []Zipcode
	CreatedAt   time.Time
}

// Zipcode is a one-to-many attribute of City.
type Zipcode struct {
	Banana    string
	Zipcode   string
	IsPrimary bool
}
