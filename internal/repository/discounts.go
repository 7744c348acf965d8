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

// DiscountRepo stocke les codes promo dans le keyspace orders.
// La colonne used_count n'est modifiée que par CAS (ConsumeUsage/ReleaseUsage).
type DiscountRepo struct{}

const discountColumns = `code, id, kind, value, min_total, usage_limit, used_count,
	single_use_per_user, start_date, end_date, enabled, created_at, updated_at`

func scanDiscount(scan func(dest ...interface{}) error) (models.DiscountCode, error) {
	var dc models.DiscountCode
	var start, end time.Time
	err := scan(&dc.Code, &dc.ID, &dc.Kind, &dc.Value, &dc.MinTotal, &dc.UsageLimit,
		&dc.UsedCount, &dc.SingleUsePerUser, &start, &end, &dc.Enabled, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		return models.DiscountCode{}, err
	}
	if !start.IsZero() {
		dc.StartDate = &start
	}
	if !end.IsZero() {
		dc.EndDate = &end
	}
	return dc, nil
}

func (DiscountRepo) ByCode(ctx context.Context, code string) (models.DiscountCode, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return models.DiscountCode{}, err
	}

	q := session.Query(`SELECT `+discountColumns+` FROM discount_codes WHERE code = ?`,
		checkout.NormalizeCode(code)).WithContext(ctx)
	dc, err := scanDiscount(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.DiscountCode{}, checkout.ErrCodeNotFound
	}
	if err != nil {
		return models.DiscountCode{}, err
	}
	return dc, nil
}

func (DiscountRepo) UserRedemptions(ctx context.Context, code string, userID string) (int, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return 0, err
	}

	var count int
	err = session.Query(`SELECT COUNT(*) FROM discount_redemptions WHERE code = ? AND user_id = ?`,
		checkout.NormalizeCode(code), userID).
		WithContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (DiscountRepo) ConsumeUsage(ctx context.Context, code string, expectedUsed int) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	var current int
	applied, err := session.Query(`UPDATE discount_codes SET used_count = ? WHERE code = ? IF used_count = ?`,
		expectedUsed+1, checkout.NormalizeCode(code), expectedUsed).
		WithContext(ctx).
		ScanCAS(&current)
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ReleaseUsage décrémente used_count lors d'une compensation. Boucle CAS
// bornée: si le compteur bouge trop vite on abandonne avec une erreur, le
// moteur la journalise sans bloquer le refus du règlement.
func (DiscountRepo) ReleaseUsage(ctx context.Context, code string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	normalized := checkout.NormalizeCode(code)

	for attempt := 0; attempt < 5; attempt++ {
		var used int
		err := session.Query(`SELECT used_count FROM discount_codes WHERE code = ?`, normalized).
			WithContext(ctx).
			Scan(&used)
		if err != nil {
			return err
		}
		if used <= 0 {
			return nil
		}

		var current int
		applied, err := session.Query(`UPDATE discount_codes SET used_count = ? WHERE code = ? IF used_count = ?`,
			used-1, normalized, used).
			WithContext(ctx).
			ScanCAS(&current)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("échec libération used_count pour %s: trop de conflits CAS", normalized)
}

// ReserveRedemption pose le verrou single-use par LWT sur (code, user).
// Contrairement au comptage des rédemptions, l'insertion conditionnelle est
// linéarisable: un seul des règlements concurrents du même utilisateur gagne.
func (DiscountRepo) ReserveRedemption(ctx context.Context, code string, userID string) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	m := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO discount_single_use_locks (code, user_id, locked_at)
		VALUES (?, ?, ?) IF NOT EXISTS`,
		checkout.NormalizeCode(code), userID, time.Now()).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (DiscountRepo) ReleaseRedemption(ctx context.Context, code string, userID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM discount_single_use_locks WHERE code = ? AND user_id = ?`,
		checkout.NormalizeCode(code), userID).
		WithContext(ctx).
		Exec()
}

// =============================================
// ADMINISTRATION DES CODES PROMO
// =============================================

func (DiscountRepo) All(ctx context.Context) ([]models.DiscountCode, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + discountColumns + ` FROM discount_codes`).
		WithContext(ctx).Iter()

	var codes []models.DiscountCode
	for {
		var dc models.DiscountCode
		var start, end time.Time
		if !iter.Scan(&dc.Code, &dc.ID, &dc.Kind, &dc.Value, &dc.MinTotal, &dc.UsageLimit,
			&dc.UsedCount, &dc.SingleUsePerUser, &start, &end, &dc.Enabled, &dc.CreatedAt, &dc.UpdatedAt) {
			break
		}
		if !start.IsZero() {
			s := start
			dc.StartDate = &s
		}
		if !end.IsZero() {
			e := end
			dc.EndDate = &e
		}
		codes = append(codes, dc)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return codes, nil
}

// Create insère un nouveau code. applied=false si le code existe déjà.
func (DiscountRepo) Create(ctx context.Context, dc models.DiscountCode) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	var start, end time.Time
	if dc.StartDate != nil {
		start = *dc.StartDate
	}
	if dc.EndDate != nil {
		end = *dc.EndDate
	}

	m := map[string]interface{}{}
	applied, err := session.Query(`INSERT INTO discount_codes (`+discountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		checkout.NormalizeCode(dc.Code), dc.ID, dc.Kind, dc.Value, dc.MinTotal, dc.UsageLimit,
		dc.UsedCount, dc.SingleUsePerUser, start, end, dc.Enabled, dc.CreatedAt, dc.UpdatedAt).
		WithContext(ctx).
		MapScanCAS(m)
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Update modifie les attributs d'un code sans toucher used_count.
func (DiscountRepo) Update(ctx context.Context, dc models.DiscountCode) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	var start, end time.Time
	if dc.StartDate != nil {
		start = *dc.StartDate
	}
	if dc.EndDate != nil {
		end = *dc.EndDate
	}

	return session.Query(`UPDATE discount_codes
		SET kind = ?, value = ?, min_total = ?, usage_limit = ?, single_use_per_user = ?,
		    start_date = ?, end_date = ?, enabled = ?, updated_at = ?
		WHERE code = ?`,
		dc.Kind, dc.Value, dc.MinTotal, dc.UsageLimit, dc.SingleUsePerUser,
		start, end, dc.Enabled, time.Now(), checkout.NormalizeCode(dc.Code)).
		WithContext(ctx).
		Exec()
}

func (DiscountRepo) Delete(ctx context.Context, code string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM discount_codes WHERE code = ?`, checkout.NormalizeCode(code)).
		WithContext(ctx).
		Exec()
}
