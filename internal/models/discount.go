package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

type DiscountCode struct {
	ID               gocql.UUID `json:"id"`
	Code             string     `json:"code"` // toujours stocké en majuscules
	Kind             string     `json:"kind"` // "percent" ou "fixed"
	Value            float64    `json:"value"`
	MinTotal         float64    `json:"min_total"`
	UsageLimit       int        `json:"usage_limit"` // 0 = illimité
	UsedCount        int        `json:"used_count"`
	SingleUsePerUser bool       `json:"single_use_per_user"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Enabled          bool       `json:"enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type DiscountRedemption struct {
	Code       string     `json:"code"`
	UserID     string     `json:"user_id"`
	PurchaseID gocql.UUID `json:"purchase_id"`
	RedeemedAt time.Time  `json:"redeemed_at"`
}

// Quote est le résultat d'une évaluation de code promo sur un sous-total.
type Quote struct {
	Subtotal    float64       `json:"subtotal"`
	Discount    *DiscountCode `json:"discount,omitempty"`
	FinalAmount float64       `json:"final_amount"`
}
