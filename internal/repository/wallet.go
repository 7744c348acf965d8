package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/gocql/gocql"
)

// WalletRepo gère le solde (keyspace users) et le journal des transactions
// (keyspace orders). Le solde n'est jamais écrit sans CAS: deux règlements
// concurrents ne peuvent pas débiter le même euro deux fois.
type WalletRepo struct{}

const walletCASAttempts = 5

func (WalletRepo) Balance(ctx context.Context, userID string) (float64, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return 0, err
	}

	var balance float64
	err = session.Query(`SELECT balance FROM wallets WHERE user_id = ?`, userID).
		WithContext(ctx).
		Scan(&balance)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (WalletRepo) Debit(ctx context.Context, userID string, amount float64) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < walletCASAttempts; attempt++ {
		var balance float64
		err := session.Query(`SELECT balance FROM wallets WHERE user_id = ?`, userID).
			WithContext(ctx).
			Scan(&balance)
		if errors.Is(err, gocql.ErrNotFound) {
			return checkout.ErrInsufficientFunds
		}
		if err != nil {
			return err
		}
		if balance < amount {
			return checkout.ErrInsufficientFunds
		}

		var current float64
		applied, err := session.Query(`UPDATE wallets SET balance = ? WHERE user_id = ? IF balance = ?`,
			balance-amount, userID, balance).
			WithContext(ctx).
			ScanCAS(&current)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// Le solde a bougé entre la lecture et l'écriture, relire.
	}
	return fmt.Errorf("échec débit wallet %s: trop de conflits CAS", userID)
}

func (WalletRepo) Credit(ctx context.Context, userID string, amount float64) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < walletCASAttempts; attempt++ {
		var balance float64
		err := session.Query(`SELECT balance FROM wallets WHERE user_id = ?`, userID).
			WithContext(ctx).
			Scan(&balance)
		if errors.Is(err, gocql.ErrNotFound) {
			m := map[string]interface{}{}
			applied, err := session.Query(`INSERT INTO wallets (user_id, balance) VALUES (?, ?) IF NOT EXISTS`,
				userID, amount).
				WithContext(ctx).
				MapScanCAS(m)
			if err != nil {
				return err
			}
			if applied {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}

		var current float64
		applied, err := session.Query(`UPDATE wallets SET balance = ? WHERE user_id = ? IF balance = ?`,
			balance+amount, userID, balance).
			WithContext(ctx).
			ScanCAS(&current)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("échec crédit wallet %s: trop de conflits CAS", userID)
}

// InitWallet crée le wallet à zéro lors de l'inscription.
func (WalletRepo) InitWallet(ctx context.Context, userID string) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	m := map[string]interface{}{}
	_, err = session.Query(`INSERT INTO wallets (user_id, balance) VALUES (?, 0) IF NOT EXISTS`, userID).
		WithContext(ctx).
		MapScanCAS(m)
	return err
}

// Deposit crédite le solde et journalise la transaction en une opération.
func (w WalletRepo) Deposit(ctx context.Context, userID string, amount float64, description string) (models.WalletTransaction, error) {
	if err := w.Credit(ctx, userID, amount); err != nil {
		return models.WalletTransaction{}, err
	}

	tx := models.WalletTransaction{
		ID:          gocql.TimeUUID(),
		UserID:      userID,
		Type:        models.TxDeposit,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := w.RecordTransaction(ctx, tx); err != nil {
		return models.WalletTransaction{}, err
	}
	return tx, nil
}

func (WalletRepo) RecordTransaction(ctx context.Context, tx models.WalletTransaction) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`INSERT INTO wallet_transactions (user_id, created_at, id, type, amount, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.CreatedAt, tx.ID, tx.Type, tx.Amount, tx.Description).
		WithContext(ctx).
		Exec()
}

// AllTransactions liste le journal complet (vue admin, scan plein).
func (WalletRepo) AllTransactions(ctx context.Context, limit int) ([]models.WalletTransaction, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT user_id, created_at, id, type, amount, description
		FROM wallet_transactions LIMIT ?`, limit).
		WithContext(ctx).Iter()

	var txs []models.WalletTransaction
	var tx models.WalletTransaction
	for iter.Scan(&tx.UserID, &tx.CreatedAt, &tx.ID, &tx.Type, &tx.Amount, &tx.Description) {
		txs = append(txs, tx)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return txs, nil
}

// RecordTopUp pose le verrou d'idempotence d'un rechargement Stripe.
// applied=false si ce PaymentIntent a déjà crédité le wallet.
func (WalletRepo) RecordTopUp(ctx context.Context, paymentIntentID, userID string, amount float64) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}
	m := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO wallet_topups (payment_intent_id, user_id, amount, credited_at)
		VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		paymentIntentID, userID, amount, time.Now()).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Transactions retourne l'historique du plus récent au plus ancien
// (clustering DESC sur created_at).
func (WalletRepo) Transactions(ctx context.Context, userID string, limit int) ([]models.WalletTransaction, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT user_id, created_at, id, type, amount, description
		FROM wallet_transactions WHERE user_id = ? LIMIT ?`, userID, limit).
		WithContext(ctx).Iter()

	var txs []models.WalletTransaction
	var tx models.WalletTransaction
	for iter.Scan(&tx.UserID, &tx.CreatedAt, &tx.ID, &tx.Type, &tx.Amount, &tx.Description) {
		txs = append(txs, tx)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return txs, nil
}
