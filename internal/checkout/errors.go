package checkout

import (
	"errors"
	"fmt"
	"net/http"
)

// Erreurs liées aux codes promo. La re-validation au règlement renvoie
// exactement les mêmes erreurs que l'évaluation.
var (
	ErrCodeNotFound      = errors.New("code promo introuvable")
	ErrCodeDisabled      = errors.New("code promo désactivé")
	ErrCodeNotYetValid   = errors.New("code promo pas encore valide")
	ErrCodeExpired       = errors.New("code promo expiré")
	ErrUsageLimitReached = errors.New("limite d'utilisation du code atteinte")
	ErrAlreadyUsedByUser = errors.New("code promo déjà utilisé par cet utilisateur")
)

// Erreurs liées au panier et au règlement.
var (
	ErrAlreadyOwned       = errors.New("jeu déjà présent dans la bibliothèque")
	ErrAlreadyInCart      = errors.New("jeu déjà présent dans le panier")
	ErrNothingToPurchase  = errors.New("aucun jeu à acheter")
	ErrInsufficientFunds  = errors.New("solde insuffisant")
	ErrAuthRequired       = errors.New("authentification requise")
	ErrSettlementInFlight = errors.New("un règlement est déjà en cours pour cette requête")
	ErrServerUnavailable  = errors.New("service momentanément indisponible")
)

// BelowMinimumError porte le minimum requis pour que le front puisse l'afficher.
type BelowMinimumError struct {
	Minimum float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("montant minimum requis: %.2f", e.Minimum)
}

// ErrorCode traduit une erreur métier en code machine stable pour le front.
func ErrorCode(err error) string {
	var belowMin *BelowMinimumError
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return "CODE_NOT_FOUND"
	case errors.Is(err, ErrCodeDisabled):
		return "CODE_DISABLED"
	case errors.Is(err, ErrCodeNotYetValid):
		return "NOT_YET_VALID"
	case errors.Is(err, ErrCodeExpired):
		return "EXPIRED"
	case errors.As(err, &belowMin):
		return "BELOW_MINIMUM"
	case errors.Is(err, ErrUsageLimitReached):
		return "USAGE_LIMIT_REACHED"
	case errors.Is(err, ErrAlreadyUsedByUser):
		return "ALREADY_USED_BY_USER"
	case errors.Is(err, ErrAlreadyOwned):
		return "ALREADY_OWNED"
	case errors.Is(err, ErrAlreadyInCart):
		return "ALREADY_IN_CART"
	case errors.Is(err, ErrNothingToPurchase):
		return "NOTHING_TO_PURCHASE"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrAuthRequired):
		return "AUTH_REQUIRED"
	case errors.Is(err, ErrSettlementInFlight):
		return "SETTLEMENT_IN_FLIGHT"
	case errors.Is(err, ErrServerUnavailable):
		return "SERVER_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// StatusFor mappe une erreur métier vers un statut HTTP:
// 400 requête invalide, 401 auth requise, 402 solde insuffisant,
// 409 conflit de possession, 503 service indisponible.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrAlreadyOwned), errors.Is(err, ErrAlreadyInCart),
		errors.Is(err, ErrSettlementInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrServerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeDisabled),
		errors.Is(err, ErrCodeNotYetValid), errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrUsageLimitReached), errors.Is(err, ErrAlreadyUsedByUser),
		errors.Is(err, ErrNothingToPurchase):
		return http.StatusBadRequest
	}
	var belowMin *BelowMinimumError
	if errors.As(err, &belowMin) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
