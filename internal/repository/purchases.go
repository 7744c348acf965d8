package repository

import (
	"context"
	"errors"
	"time"

	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/gocql/gocql"
)

// PurchaseRepo écrit les achats dans le keyspace orders. Le commit est un
// batch logged unique: achat, journal wallet, entitlements et rédemption
// apparaissent ensemble ou pas du tout.
type PurchaseRepo struct{}

func (PurchaseRepo) ReserveRequest(ctx context.Context, userID, requestID string) (*models.Purchase, bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, false, err
	}

	m := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO purchases_by_request (user_id, request_id, reserved_at)
		VALUES (?, ?, ?) IF NOT EXISTS`,
		userID, requestID, time.Now()).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return nil, false, err
	}
	if applied {
		return nil, true, nil
	}

	// La clé existe déjà: soit un règlement committé (replay), soit un
	// règlement encore en vol.
	pid, _ := m["purchase_id"].(gocql.UUID)
	var zero gocql.UUID
	if pid == zero {
		return nil, false, nil
	}

	purchase, err := purchaseByID(ctx, session, pid)
	if err != nil {
		return nil, false, err
	}
	return &purchase, false, nil
}

func (PurchaseRepo) ReleaseRequest(ctx context.Context, userID, requestID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM purchases_by_request WHERE user_id = ? AND request_id = ?`,
		userID, requestID).
		WithContext(ctx).
		Exec()
}

func (PurchaseRepo) Commit(ctx context.Context, rec checkout.CommitRecord) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	p := rec.Purchase
	tx := rec.Transaction

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(`INSERT INTO purchases (id, user_id, game_ids, total_amount, discount_code, final_amount, purchased_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.GameIDs, p.TotalAmount, p.DiscountCode, p.FinalAmount, p.PurchasedAt)

	batch.Query(`INSERT INTO purchases_by_user (user_id, purchased_at, id, game_ids, total_amount, discount_code, final_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.PurchasedAt, p.ID, p.GameIDs, p.TotalAmount, p.DiscountCode, p.FinalAmount)

	batch.Query(`INSERT INTO wallet_transactions (user_id, created_at, id, type, amount, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.CreatedAt, tx.ID, tx.Type, tx.Amount, tx.Description)

	for _, gameID := range p.GameIDs {
		batch.Query(`INSERT INTO library_entitlements (user_id, game_id, purchase_id, granted_at)
			VALUES (?, ?, ?, ?)`,
			p.UserID, gameID, p.ID, p.PurchasedAt)
	}

	if rec.Redemption != nil {
		r := rec.Redemption
		batch.Query(`INSERT INTO discount_redemptions (code, user_id, purchase_id, redeemed_at)
			VALUES (?, ?, ?, ?)`,
			r.Code, r.UserID, r.PurchaseID, r.RedeemedAt)
	}

	// Attacher l'achat à la clé de requête: un replay ultérieur retrouve
	// l'achat committé au lieu de re-régler.
	batch.Query(`UPDATE purchases_by_request SET purchase_id = ? WHERE user_id = ? AND request_id = ?`,
		p.ID, p.UserID, rec.RequestID)

	return session.ExecuteBatch(batch)
}

func purchaseByID(ctx context.Context, session *gocql.Session, id gocql.UUID) (models.Purchase, error) {
	var p models.Purchase
	err := session.Query(`SELECT id, user_id, game_ids, total_amount, discount_code, final_amount, purchased_at
		FROM purchases WHERE id = ?`, id).
		WithContext(ctx).
		Scan(&p.ID, &p.UserID, &p.GameIDs, &p.TotalAmount, &p.DiscountCode, &p.FinalAmount, &p.PurchasedAt)
	if err != nil {
		return models.Purchase{}, err
	}
	return p, nil
}

func (PurchaseRepo) ByID(ctx context.Context, id gocql.UUID) (models.Purchase, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return models.Purchase{}, err
	}
	p, err := purchaseByID(ctx, session, id)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Purchase{}, gocql.ErrNotFound
	}
	return p, err
}

// ByUser retourne l'historique d'achats du plus récent au plus ancien.
func (PurchaseRepo) ByUser(ctx context.Context, userID string, limit int) ([]models.Purchase, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT id, user_id, game_ids, total_amount, discount_code, final_amount, purchased_at
		FROM purchases_by_user WHERE user_id = ? LIMIT ?`, userID, limit).
		WithContext(ctx).Iter()

	var purchases []models.Purchase
	for {
		var p models.Purchase
		if !iter.Scan(&p.ID, &p.UserID, &p.GameIDs, &p.TotalAmount, &p.DiscountCode, &p.FinalAmount, &p.PurchasedAt) {
			break
		}
		purchases = append(purchases, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return purchases, nil
}
