package repository

import (
	"context"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"
)

// LibraryRepo lit les entitlements dans le keyspace orders. Les écritures
// passent uniquement par le batch de commit de PurchaseRepo.
type LibraryRepo struct{}

func (LibraryRepo) OwnedIDs(ctx context.Context, userID string) (map[int]bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT game_id FROM library_entitlements WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	owned := make(map[int]bool)
	var gameID int
	for iter.Scan(&gameID) {
		owned[gameID] = true
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return owned, nil
}

func (LibraryRepo) Entitlements(ctx context.Context, userID string) ([]models.Entitlement, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT user_id, game_id, purchase_id, granted_at
		FROM library_entitlements WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var entitlements []models.Entitlement
	var e models.Entitlement
	for iter.Scan(&e.UserID, &e.GameID, &e.PurchaseID, &e.GrantedAt) {
		entitlements = append(entitlements, e)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entitlements, nil
}
