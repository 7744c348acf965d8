package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Entitlement lie un jeu possédé à l'achat qui l'a octroyé.
type Entitlement struct {
	UserID     string     `json:"user_id"`
	GameID     int        `json:"game_id"`
	PurchaseID gocql.UUID `json:"purchase_id"`
	GrantedAt  time.Time  `json:"granted_at"`
}

// Purchase est créé une seule fois par règlement committé, jamais modifié ensuite.
type Purchase struct {
	ID           gocql.UUID `json:"id"`
	UserID       string     `json:"user_id"`
	GameIDs      []int      `json:"game_ids"`
	TotalAmount  float64    `json:"total_amount"` // avant réduction
	DiscountCode string     `json:"discount_code,omitempty"`
	FinalAmount  float64    `json:"final_amount"`
	PurchasedAt  time.Time  `json:"purchased_at"`
}
