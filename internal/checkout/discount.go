package checkout

import (
	"context"
	"strings"
	"time"

	"gamevault_back_end/internal/models"
)

// Evaluator valide un code promo contre un sous-total et calcule le montant
// final. L'évaluation est une pure lecture: aucun compteur n'est consommé
// ici, la consommation n'arrive qu'au commit du règlement.
type Evaluator struct {
	discounts DiscountStore
}

func NewEvaluator(discounts DiscountStore) *Evaluator {
	return &Evaluator{discounts: discounts}
}

// Evaluate vérifie les conditions dans un ordre strict et s'arrête à la
// première qui échoue: le message vu par l'utilisateur dépend de cet ordre.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal float64, userID string, now time.Time) (models.Quote, error) {
	dc, err := e.discounts.ByCode(ctx, NormalizeCode(code))
	if err != nil {
		return models.Quote{}, err
	}

	if !dc.Enabled {
		return models.Quote{}, ErrCodeDisabled
	}
	if dc.StartDate != nil && now.Before(*dc.StartDate) {
		return models.Quote{}, ErrCodeNotYetValid
	}
	if dc.EndDate != nil && now.After(*dc.EndDate) {
		return models.Quote{}, ErrCodeExpired
	}
	if subtotal < dc.MinTotal {
		return models.Quote{}, &BelowMinimumError{Minimum: dc.MinTotal}
	}
	if dc.UsageLimit > 0 && dc.UsedCount >= dc.UsageLimit {
		return models.Quote{}, ErrUsageLimitReached
	}
	if dc.SingleUsePerUser {
		used, err := e.discounts.UserRedemptions(ctx, dc.Code, userID)
		if err != nil {
			return models.Quote{}, err
		}
		if used > 0 {
			return models.Quote{}, ErrAlreadyUsedByUser
		}
	}

	return models.Quote{
		Subtotal:    subtotal,
		Discount:    &dc,
		FinalAmount: FinalAmount(dc, subtotal),
	}, nil
}

// FinalAmount applique la réduction au sous-total, avec un plancher à zéro:
// un code fixe plus grand que le panier ne crée jamais d'avoir.
func FinalAmount(dc models.DiscountCode, subtotal float64) float64 {
	var discount float64
	switch dc.Kind {
	case models.DiscountPercent:
		discount = subtotal * dc.Value / 100
	case models.DiscountFixed:
		discount = dc.Value
	}

	final := subtotal - discount
	if final < 0 {
		final = 0
	}
	return final
}

// NormalizeCode ramène un code saisi par l'utilisateur à sa forme stockée.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
