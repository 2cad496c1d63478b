package domain

import "time"

// WineType groups wines by style.
type WineType string

const (
	WineTypeRed       WineType = "RED"
	WineTypeWhite     WineType = "WHITE"
	WineTypeRose      WineType = "ROSE"
	WineTypeSparkling WineType = "SPARKLING"
	WineTypeDessert   WineType = "DESSERT"
)

// Wine is a catalog listing.
type Wine struct {
	ID         string
	SKU        string
	Name       string
	Winery     string
	Region     string
	Country    string
	Vintage    int
	Type       WineType
	PriceCents int64
	Stock      int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
