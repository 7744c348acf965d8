package checkout

import (
	"context"

	"gamevault_back_end/internal/models"
)

// Catalog expose les prix courants du catalogue. Le règlement re-price
// toujours depuis le catalogue, jamais depuis le total envoyé par le client.
type Catalog interface {
	// GamesByIDs retourne les jeux trouvés; un id absent du catalogue est
	// simplement absent de la map.
	GamesByIDs(ctx context.Context, ids []int) (map[int]models.Game, error)
}

// DiscountStore est la vue du moteur sur les codes promo.
type DiscountStore interface {
	// ByCode retourne ErrCodeNotFound si le code n'existe pas.
	// La recherche est insensible à la casse (codes stockés en majuscules).
	ByCode(ctx context.Context, code string) (models.DiscountCode, error)
	UserRedemptions(ctx context.Context, code string, userID string) (int, error)
	// ConsumeUsage incrémente used_count par CAS: applied=false si le
	// compteur a bougé entre la lecture et l'écriture.
	ConsumeUsage(ctx context.Context, code string, expectedUsed int) (bool, error)
	// ReleaseUsage rend une consommation lors d'une compensation.
	ReleaseUsage(ctx context.Context, code string) error
	// ReserveRedemption pose le verrou single-use (code, user) par LWT:
	// applied=false si l'utilisateur détient déjà le verrou. Deux règlements
	// concurrents du même utilisateur ne peuvent pas le gagner tous les deux.
	ReserveRedemption(ctx context.Context, code string, userID string) (bool, error)
	// ReleaseRedemption rend le verrou lors d'une compensation.
	ReleaseRedemption(ctx context.Context, code string, userID string) error
}

// WalletLedger est la frontière de verrouillage du solde: deux règlements
// concurrents du même utilisateur ne doivent jamais passer tous les deux la
// vérification de solde sur un état périmé.
type WalletLedger interface {
	Balance(ctx context.Context, userID string) (float64, error)
	// Debit retourne ErrInsufficientFunds sans rien modifier si le solde ne
	// couvre pas le montant.
	Debit(ctx context.Context, userID string, amount float64) error
	Credit(ctx context.Context, userID string, amount float64) error
}

// Library est la vue du moteur sur les entitlements existants.
type Library interface {
	OwnedIDs(ctx context.Context, userID string) (map[int]bool, error)
}

// PurchaseLog écrit l'achat, la transaction, les entitlements et la
// rédemption en une seule unité.
type PurchaseLog interface {
	// ReserveRequest pose la réservation d'idempotence pour requestID.
	// existing est l'achat déjà committé pour cette clé (replay), reserved
	// vaut true si la clé vient d'être posée par cet appel.
	ReserveRequest(ctx context.Context, userID, requestID string) (existing *models.Purchase, reserved bool, err error)
	// ReleaseRequest libère la réservation d'un règlement rejeté pour que le
	// client puisse re-tenter avec la même clé après correction.
	ReleaseRequest(ctx context.Context, userID, requestID string) error
	Commit(ctx context.Context, rec CommitRecord) error
}

// CommitRecord regroupe tout ce qui doit être écrit ensemble au commit.
type CommitRecord struct {
	RequestID   string
	Purchase    models.Purchase
	Transaction models.WalletTransaction
	Redemption  *models.DiscountRedemption // nil si pas de code promo
}

// SettledCart retire du panier uniquement les lignes réglées: une ligne
// ajoutée pendant le règlement doit rester dans le panier.
type SettledCart interface {
	RemoveSettled(ctx context.Context, userID string, gameIDs []int) error
}
