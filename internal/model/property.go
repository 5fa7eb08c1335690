package model

import "time"

// Property is a rental listing. OwnerEmail is fixed at creation.
type Property struct {
	ID               string    `json:"_id"`
	OwnerEmail       string    `json:"userEmail"`
	Name             string    `json:"propertyName"`
	ShortDescription string    `json:"shortDescription"`
	Category         string    `json:"category"`
	Price            float64   `json:"propertyPrice"`
	Location         string    `json:"location"`
	Image            string    `json:"image"`
	InsertedAt       time.Time `json:"inserted_at"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Owner returns the declared owner of the property.
func (p *Property) Owner() Identity {
	return Identity(p.OwnerEmail)
}

// PropertyPatch names the mutable property fields. A nil field is absent
// from the patch and leaves the stored value untouched.
type PropertyPatch struct {
	Name             *string `json:"propertyName"`
	ShortDescription *string `json:"shortDescription"`
	Category         *string `json:"category"`
	Price            *Number `json:"propertyPrice"`
	Location         *string `json:"location"`
	Image            *string `json:"image"`
}
