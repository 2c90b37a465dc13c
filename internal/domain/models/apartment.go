package models

import "time"

// Apartment is a rentable unit. Bookings reference it by ID only.
type Apartment struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description" json:"description"`
	PricePerNight float64   `bson:"price_per_night" json:"pricePerNight"`
	Location      string    `bson:"location,omitempty" json:"location,omitempty"`
	Amenities     []string  `bson:"amenities" json:"amenities"`
	Images        []string  `bson:"images" json:"images"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// ApartmentPatch carries a partial apartment update. Nil fields are left untouched.
type ApartmentPatch struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	PricePerNight *float64  `json:"pricePerNight,omitempty"`
	Location      *string   `json:"location,omitempty"`
	Amenities     *[]string `json:"amenities,omitempty"`
	Images        *[]string `json:"images,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p ApartmentPatch) Apply(a Apartment) Apartment {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.PricePerNight != nil {
		a.PricePerNight = *p.PricePerNight
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Amenities != nil {
		a.Amenities = *p.Amenities
	}
	if p.Images != nil {
		a.Images = *p.Images
	}
	return a
}

// Validate checks the fields every stored apartment must carry.
func (a Apartment) Validate() error {
	if a.Name == "" {
		return &ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if a.PricePerNight < 0 {
		return &ErrValidation{Field: "pricePerNight", Message: "must not be negative"}
	}
	return nil
}
