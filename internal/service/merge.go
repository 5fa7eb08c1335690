package service

import (
	"time"

	"github.com/homenest/homenest/internal/model"
)

// MergeProperty applies patch to a copy of existing. Only the mutable
// listing fields are considered; owner, ID and insertion time are carried
// over untouched. UpdatedAt is always set to now. On error nothing is
// returned and existing is unchanged.
func MergeProperty(existing *model.Property, patch model.PropertyPatch, now time.Time) (*model.Property, error) {
	merged := *existing

	if patch.Price != nil {
		price, err := coercePrice(*patch.Price)
		if err != nil {
			return nil, err
		}
		merged.Price = price
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.ShortDescription != nil {
		merged.ShortDescription = *patch.ShortDescription
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Image != nil {
		merged.Image = *patch.Image
	}

	merged.UpdatedAt = now.UTC()
	return &merged, nil
}

func coercePrice(n model.Number) (float64, error) {
	v, err := n.Float64()
	if err != nil || v < 0 {
		return 0, invalidField("propertyPrice", "must be a non-negative number")
	}
	return v, nil
}
