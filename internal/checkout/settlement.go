package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gamevault_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Engine exécute le règlement d'un panier contre le wallet:
// Draft → Validating → Reserving → Committed, ou rejet avec une erreur
// typée. Aucun état partiel n'est observable: soit le débit, la transaction,
// les entitlements et la rédemption sont tous committés, soit rien.
//
// Les étapes de validation ne mutent rien; le moteur ne re-tente jamais une
// pré-condition lui-même (l'utilisateur corrige puis resoumet). Seul l'écart
// d'écriture au commit est compensé en interne.
type Engine struct {
	catalog   Catalog
	discounts DiscountStore
	evaluator *Evaluator
	wallet    WalletLedger
	library   Library
	purchases PurchaseLog
	cart      SettledCart
	now       func() time.Time
}

func NewEngine(catalog Catalog, discounts DiscountStore, wallet WalletLedger, library Library, purchases PurchaseLog, cart SettledCart) *Engine {
	return &Engine{
		catalog:   catalog,
		discounts: discounts,
		evaluator: NewEvaluator(discounts),
		wallet:    wallet,
		library:   library,
		purchases: purchases,
		cart:      cart,
		now:       time.Now,
	}
}

type SettleRequest struct {
	UserID       string
	RequestID    string // clé d'idempotence fournie par le client
	Lines        []models.CartItem
	DiscountCode string // optionnel
}

// Settle règle le panier. Un double-clic ou un retry réseau portant la même
// clé d'idempotence retombe sur l'achat original, jamais sur un second débit.
func (e *Engine) Settle(ctx context.Context, req SettleRequest) (models.Purchase, error) {
	if req.UserID == "" {
		return models.Purchase{}, ErrAuthRequired
	}
	if req.RequestID == "" {
		return models.Purchase{}, fmt.Errorf("%w: clé d'idempotence manquante", ErrSettlementInFlight)
	}
	if len(req.Lines) == 0 {
		return models.Purchase{}, ErrNothingToPurchase
	}

	// Réservation d'idempotence avant toute validation.
	existing, reserved, err := e.purchases.ReserveRequest(ctx, req.UserID, req.RequestID)
	if err != nil {
		return models.Purchase{}, fmt.Errorf("%w: réservation idempotence: %v", ErrServerUnavailable, err)
	}
	if existing != nil {
		log.Printf("🔁 Règlement déjà committé pour la clé %s, replay de l'achat %s", req.RequestID, existing.ID)
		return *existing, nil
	}
	if !reserved {
		return models.Purchase{}, ErrSettlementInFlight
	}

	// Un règlement rejeté libère sa réservation: le client peut re-tenter
	// avec la même clé après avoir corrigé la condition.
	reject := func(cause error) (models.Purchase, error) {
		if relErr := e.purchases.ReleaseRequest(ctx, req.UserID, req.RequestID); relErr != nil {
			log.Printf("⚠️ Libération de la clé %s impossible: %v", req.RequestID, relErr)
		}
		return models.Purchase{}, cause
	}

	// 1. Re-pricing depuis le catalogue: jamais confiance au total client.
	ids := make([]int, 0, len(req.Lines))
	seen := make(map[int]bool, len(req.Lines))
	for _, line := range req.Lines {
		if !seen[line.GameID] {
			seen[line.GameID] = true
			ids = append(ids, line.GameID)
		}
	}
	games, err := e.catalog.GamesByIDs(ctx, ids)
	if err != nil {
		return reject(fmt.Errorf("%w: lecture catalogue: %v", ErrServerUnavailable, err))
	}

	// 2. Filtrage silencieux des jeux déjà possédés (et des jeux retirés du
	// catalogue entre-temps): une ligne possédée au checkout est un état
	// périmé, pas une intention d'achat.
	owned, err := e.library.OwnedIDs(ctx, req.UserID)
	if err != nil {
		return reject(fmt.Errorf("%w: lecture bibliothèque: %v", ErrServerUnavailable, err))
	}

	var subtotal float64
	keptIDs := make([]int, 0, len(req.Lines))
	for _, line := range req.Lines {
		game, inCatalog := games[line.GameID]
		if !inCatalog || owned[line.GameID] {
			continue
		}
		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}
		subtotal += game.Price * float64(quantity)
		keptIDs = append(keptIDs, line.GameID)
	}
	if len(keptIDs) == 0 {
		return reject(ErrNothingToPurchase)
	}

	// 3. Re-validation complète du code promo contre le sous-total et
	// l'instant courants: ferme la fenêtre entre "appliquer le code" côté
	// front et l'achat réel.
	now := e.now()
	quote := models.Quote{Subtotal: subtotal, FinalAmount: subtotal}
	if req.DiscountCode != "" {
		quote, err = e.evaluator.Evaluate(ctx, req.DiscountCode, subtotal, req.UserID, now)
		if err != nil {
			return reject(err)
		}
	}

	// 4. Vérification de solde puis débit, sérialisés par le ledger:
	// aucune mutation si le solde ne couvre pas le montant.
	if err := e.wallet.Debit(ctx, req.UserID, quote.FinalAmount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return reject(ErrInsufficientFunds)
		}
		return reject(fmt.Errorf("%w: débit wallet: %v", ErrServerUnavailable, err))
	}

	// 5. Consommation du code APRÈS le financement: un règlement qui échoue
	// au débit ne consomme jamais le code. Si la limite globale est tombée
	// entre l'évaluation et ici, on rend le débit et on rejette.
	purchaseID := gocql.TimeUUID()
	var redemption *models.DiscountRedemption
	if quote.Discount != nil {
		if err := e.consumeDiscount(ctx, quote.Discount.Code); err != nil {
			e.compensateDebit(ctx, req.UserID, quote.FinalAmount)
			return reject(err)
		}
		// Un code single-use est verrouillé par LWT sur (code, user): la
		// re-évaluation de l'étape 3 lit un compteur qui peut être en retard
		// sur un règlement concurrent du même utilisateur, le verrou non.
		if quote.Discount.SingleUsePerUser {
			applied, err := e.discounts.ReserveRedemption(ctx, quote.Discount.Code, req.UserID)
			if err != nil {
				e.releaseUsage(ctx, quote.Discount.Code)
				e.compensateDebit(ctx, req.UserID, quote.FinalAmount)
				return reject(fmt.Errorf("%w: verrou single-use: %v", ErrServerUnavailable, err))
			}
			if !applied {
				e.releaseUsage(ctx, quote.Discount.Code)
				e.compensateDebit(ctx, req.UserID, quote.FinalAmount)
				return reject(ErrAlreadyUsedByUser)
			}
		}
		redemption = &models.DiscountRedemption{
			Code:       quote.Discount.Code,
			UserID:     req.UserID,
			PurchaseID: purchaseID,
			RedeemedAt: now,
		}
	}

	purchase := models.Purchase{
		ID:          purchaseID,
		UserID:      req.UserID,
		GameIDs:     keptIDs,
		TotalAmount: subtotal,
		FinalAmount: quote.FinalAmount,
		PurchasedAt: now,
	}
	if quote.Discount != nil {
		purchase.DiscountCode = quote.Discount.Code
	}

	tx := models.WalletTransaction{
		ID:          gocql.TimeUUID(),
		UserID:      req.UserID,
		Type:        models.TxPurchase,
		Amount:      quote.FinalAmount,
		Description: fmt.Sprintf("Achat de %d jeu(x)", len(keptIDs)),
		CreatedAt:   now,
	}

	// 6. Commit: achat + transaction + entitlements + rédemption en une
	// seule unité. En cas d'échec, tout ce qui précède est compensé: le
	// wallet ne reste jamais débité sans entitlements.
	rec := CommitRecord{
		RequestID:   req.RequestID,
		Purchase:    purchase,
		Transaction: tx,
		Redemption:  redemption,
	}
	if err := e.purchases.Commit(ctx, rec); err != nil {
		e.compensateDebit(ctx, req.UserID, quote.FinalAmount)
		if redemption != nil {
			e.releaseUsage(ctx, redemption.Code)
			if quote.Discount.SingleUsePerUser {
				if relErr := e.discounts.ReleaseRedemption(ctx, redemption.Code, req.UserID); relErr != nil {
					log.Printf("⚠️ Libération du verrou single-use impossible pour %s: %v", redemption.Code, relErr)
				}
			}
		}
		return reject(fmt.Errorf("%w: commit règlement: %v", ErrServerUnavailable, err))
	}

	// 7. On ne retire du panier que les lignes réglées. Un échec ici n'est
	// pas bloquant: l'achat est committé, le panier se resynchronisera.
	if e.cart != nil {
		if err := e.cart.RemoveSettled(ctx, req.UserID, keptIDs); err != nil {
			log.Printf("⚠️ Nettoyage du panier impossible pour %s: %v", req.UserID, err)
		}
	}

	log.Printf("✅ Règlement committé: achat %s, %d jeu(x), %.2f → %.2f pour %s",
		purchase.ID, len(keptIDs), subtotal, quote.FinalAmount, req.UserID)
	return purchase, nil
}

// consumeDiscount incrémente used_count par CAS, avec re-lecture en cas de
// contention. La limite globale est re-vérifiée à chaque tour: perdre la
// course sur le dernier slot donne ErrUsageLimitReached, même si
// l'évaluation plus tôt dans la session avait dit "valide".
func (e *Engine) consumeDiscount(ctx context.Context, code string) error {
	for attempt := 0; attempt < 3; attempt++ {
		fresh, err := e.discounts.ByCode(ctx, code)
		if err != nil {
			return err
		}
		if fresh.UsageLimit > 0 && fresh.UsedCount >= fresh.UsageLimit {
			return ErrUsageLimitReached
		}
		applied, err := e.discounts.ConsumeUsage(ctx, code, fresh.UsedCount)
		if err != nil {
			return fmt.Errorf("%w: consommation du code: %v", ErrServerUnavailable, err)
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("%w: trop de contention sur le code %s", ErrServerUnavailable, code)
}

func (e *Engine) releaseUsage(ctx context.Context, code string) {
	if err := e.discounts.ReleaseUsage(ctx, code); err != nil {
		log.Printf("⚠️ Compensation used_count impossible pour %s: %v", code, err)
	}
}

func (e *Engine) compensateDebit(ctx context.Context, userID string, amount float64) {
	if err := e.wallet.Credit(ctx, userID, amount); err != nil {
		// Dernier recours: le crédit de compensation a échoué, on trace pour
		// reprise manuelle plutôt que de perdre l'information.
		log.Printf("❌ CRITIQUE: compensation de %.2f impossible pour %s: %v", amount, userID, err)
	}
}
