package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	TxDeposit    = "deposit"
	TxPurchase   = "purchase"
	TxRefund     = "refund"
	TxWithdrawal = "withdrawal"
	TxBonus      = "bonus"
)

// WalletTransaction est un journal en append-only: le montant est toujours
// positif, le sens (crédit/débit) est porté par le type.
type WalletTransaction struct {
	ID          gocql.UUID `json:"id"`
	UserID      string     `json:"user_id"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}
