// Package ownership models the owner-percentage split attached to products
// and expenses.
package ownership

import (
	"fmt"

	"github.com/mercurio-erp/mercurio-erp/internal/shared"
)

// Share assigns a percentage of a product or expense to one owner.
type Share struct {
	OwnerID    int64   `json:"owner_id"`
	Percentage float64 `json:"percentage"`
}

// Sentinel errors for share validation.
var (
	ErrNoShares      = fmt.Errorf("%w: debe asignar al menos un propietario", shared.ErrValidation)
	ErrBadSplit      = fmt.Errorf("%w: los porcentajes deben sumar exactamente 100", shared.ErrValidation)
	ErrUnknownOwner  = fmt.Errorf("%w: propietario inexistente", shared.ErrValidation)
	ErrBadPercentage = fmt.Errorf("%w: cada porcentaje debe ser mayor a 0", shared.ErrValidation)
)

// Validate checks the split before anything is written: at least one share,
// every percentage positive, and the sum exactly 100. Exact equality is the
// documented behavior; there is no tolerance band.
func Validate(shares []Share) error {
	if len(shares) == 0 {
		return ErrNoShares
	}
	var sum float64
	for _, share := range shares {
		if share.Percentage <= 0 {
			return ErrBadPercentage
		}
		sum += share.Percentage
	}
	if sum != 100 {
		return ErrBadSplit
	}
	return nil
}
