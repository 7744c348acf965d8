package checkout

import (
	"context"
	"testing"
	"time"

	"gamevault_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine    *Engine
	catalog   *mockCatalog
	discounts *mockDiscounts
	wallet    *mockWallet
	library   *mockLibrary
	purchases *mockPurchases
	cart      *mockSettledCart
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		catalog: &mockCatalog{games: map[int]models.Game{
			7: {ID: 7, Name: "Star Drifter", Price: 400},
			8: {ID: 8, Name: "Moss Kingdom", Price: 600},
		}},
		discounts: &mockDiscounts{
			codes:           map[string]models.DiscountCode{"SAVE10": save10()},
			userRedemptions: map[string]int{},
		},
		wallet:    &mockWallet{balance: 5000},
		library:   &mockLibrary{owned: map[int]bool{}},
		purchases: newMockPurchases(),
		cart:      &mockSettledCart{},
	}
	f.engine = NewEngine(f.catalog, f.discounts, f.wallet, f.library, f.purchases, f.cart)
	f.engine.now = func() time.Time { return evalNow }
	return f
}

func twoGameCart() []models.CartItem {
	return []models.CartItem{
		{GameID: 7, Name: "Star Drifter", Price: 400, Quantity: 1},
		{GameID: 8, Name: "Moss Kingdom", Price: 600, Quantity: 1},
	}
}

func TestSettle_WithPercentDiscount(t *testing.T) {
	f := newEngineFixture()

	purchase, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, purchase.GameIDs)
	assert.Equal(t, 1000.0, purchase.TotalAmount)
	assert.Equal(t, 900.0, purchase.FinalAmount)
	assert.Equal(t, "SAVE10", purchase.DiscountCode)

	// Un seul débit, du montant final exactement.
	assert.Equal(t, []float64{900}, f.wallet.debits)
	assert.Equal(t, 4100.0, f.wallet.balance)

	// Le compteur n'est consommé qu'au commit, et une seule fois.
	assert.Equal(t, 1, f.discounts.codes["SAVE10"].UsedCount)

	require.Len(t, f.purchases.committed, 1)
	rec := f.purchases.committed[0]
	assert.Equal(t, models.TxPurchase, rec.Transaction.Type)
	assert.Equal(t, 900.0, rec.Transaction.Amount)
	require.NotNil(t, rec.Redemption)
	assert.Equal(t, purchase.ID, rec.Redemption.PurchaseID)

	// Seules les lignes réglées sortent du panier.
	require.Len(t, f.cart.removed, 1)
	assert.Equal(t, []int{7, 8}, f.cart.removed[0])
}

func TestSettle_WithoutDiscount(t *testing.T) {
	f := newEngineFixture()

	purchase, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
		Lines:     twoGameCart(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1000.0, purchase.FinalAmount)
	assert.Empty(t, purchase.DiscountCode)
	require.Len(t, f.purchases.committed, 1)
	assert.Nil(t, f.purchases.committed[0].Redemption)
}

func TestSettle_InsufficientFunds(t *testing.T) {
	f := newEngineFixture()
	f.wallet.balance = 50

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Aucune mutation: solde intact, pas d'achat, code non consommé.
	assert.Equal(t, 50.0, f.wallet.balance)
	assert.Empty(t, f.wallet.debits)
	assert.Empty(t, f.purchases.committed)
	assert.Zero(t, f.discounts.codes["SAVE10"].UsedCount)

	// La clé d'idempotence est libérée: un nouvel essai après top-up passe.
	f.wallet.balance = 2000
	_, err = f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
}

func TestSettle_FiltersOwnedGames(t *testing.T) {
	f := newEngineFixture()
	f.library.owned[7] = true

	purchase, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
		Lines:     twoGameCart(),
	})

	require.NoError(t, err)
	assert.Equal(t, []int{8}, purchase.GameIDs)
	assert.Equal(t, 600.0, purchase.TotalAmount)
	assert.Equal(t, []float64{600}, f.wallet.debits)
}

func TestSettle_NothingToPurchase(t *testing.T) {
	f := newEngineFixture()
	f.library.owned[7] = true
	f.library.owned[8] = true

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
		Lines:     twoGameCart(),
	})

	assert.ErrorIs(t, err, ErrNothingToPurchase)
	assert.Empty(t, f.wallet.debits)
}

func TestSettle_EmptyCart(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
	})

	assert.ErrorIs(t, err, ErrNothingToPurchase)
}

func TestSettle_RepricesFromCatalog(t *testing.T) {
	// Le prix du panier est un instantané d'affichage: le règlement honore
	// le prix catalogue courant.
	f := newEngineFixture()
	stale := []models.CartItem{{GameID: 7, Name: "Star Drifter", Price: 10, Quantity: 1}}

	purchase, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
		Lines:     stale,
	})

	require.NoError(t, err)
	assert.Equal(t, 400.0, purchase.TotalAmount)
	assert.Equal(t, []float64{400}, f.wallet.debits)
}

func TestSettle_IdempotentReplay(t *testing.T) {
	f := newEngineFixture()
	req := SettleRequest{
		UserID:       "u1",
		RequestID:    "req-dup",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	}

	first, err := f.engine.Settle(context.Background(), req)
	require.NoError(t, err)

	second, err := f.engine.Settle(context.Background(), req)
	require.NoError(t, err)

	// Même achat, un seul débit, un seul commit.
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.wallet.debits, 1)
	assert.Len(t, f.purchases.committed, 1)
	assert.Equal(t, 1, f.discounts.codes["SAVE10"].UsedCount)
}

func TestSettle_ConcurrentSameKeyRejected(t *testing.T) {
	f := newEngineFixture()
	f.purchases.inFlight["req-1"] = true

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:    "u1",
		RequestID: "req-1",
		Lines:     twoGameCart(),
	})

	assert.ErrorIs(t, err, ErrSettlementInFlight)
	assert.Empty(t, f.wallet.debits)
}

func TestSettle_RevalidatesDiscountAtCommitTime(t *testing.T) {
	// Scénario: la limite globale tombe entre l'évaluation en session et le
	// règlement. La re-validation au commit doit rejeter.
	f := newEngineFixture()
	dc := save10()
	dc.UsageLimit = 1
	dc.UsedCount = 1 // déjà consommé par un autre utilisateur
	f.discounts.codes["SAVE10"] = dc

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrUsageLimitReached)
	assert.Empty(t, f.wallet.debits)
	assert.Empty(t, f.purchases.committed)
}

func TestSettle_LosesUsageRaceAfterDebit(t *testing.T) {
	// La course la plus serrée: l'évaluation passe, le débit passe, mais un
	// règlement concurrent prend le dernier slot du code juste avant notre
	// CAS. Le débit doit être rendu intégralement.
	f := newEngineFixture()
	dc := save10()
	dc.UsageLimit = 1
	f.discounts.codes["SAVE10"] = dc

	f.discounts.onConsume = func(code string, _ int) (bool, error) {
		// simule le règlement concurrent qui gagne le CAS
		other := f.discounts.codes[code]
		other.UsedCount = 1
		f.discounts.codes[code] = other
		return false, nil
	}

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrUsageLimitReached)
	assert.Equal(t, []float64{900}, f.wallet.debits)
	assert.Equal(t, []float64{900}, f.wallet.credits)
	assert.Equal(t, 5000.0, f.wallet.balance) // solde revenu à l'identique
	assert.Empty(t, f.purchases.committed)
}

func TestSettle_SingleUseCodeBlocksConcurrentSameUser(t *testing.T) {
	// Deux règlements du même utilisateur sur un code single-use: le premier
	// prend le verrou (code, user). Le second passe la re-évaluation (le
	// comptage des rédemptions peut être en retard) mais perd le verrou au
	// commit: débit rendu, compteur global rendu.
	f := newEngineFixture()
	dc := save10()
	dc.SingleUsePerUser = true
	dc.MinTotal = 0
	f.discounts.codes["SAVE10"] = dc

	first, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        []models.CartItem{{GameID: 7, Name: "Star Drifter", Price: 400, Quantity: 1}},
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
	assert.True(t, f.discounts.locks[redemptionKey("SAVE10", "u1")])

	_, err = f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-2",
		Lines:        []models.CartItem{{GameID: 8, Name: "Moss Kingdom", Price: 600, Quantity: 1}},
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrAlreadyUsedByUser)
	require.Len(t, f.purchases.committed, 1)
	assert.Equal(t, first.ID, f.purchases.committed[0].Purchase.ID)
	assert.Equal(t, 1, f.discounts.codes["SAVE10"].UsedCount)

	// Le second débit est rendu intégralement.
	assert.Equal(t, []float64{360, 540}, f.wallet.debits)
	assert.Equal(t, []float64{540}, f.wallet.credits)
	assert.Equal(t, 4640.0, f.wallet.balance)

	// Un autre utilisateur n'est pas concerné par le verrou de u1.
	_, err = f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u2",
		RequestID:    "req-3",
		Lines:        []models.CartItem{{GameID: 7, Name: "Star Drifter", Price: 400, Quantity: 1}},
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
}

func TestSettle_CommitFailureReleasesSingleUseLock(t *testing.T) {
	f := newEngineFixture()
	dc := save10()
	dc.SingleUsePerUser = true
	f.discounts.codes["SAVE10"] = dc
	f.purchases.commitErr = assert.AnError

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrServerUnavailable)
	assert.Equal(t, 1, f.discounts.lockReleases)
	assert.False(t, f.discounts.locks[redemptionKey("SAVE10", "u1")])

	// Le verrou rendu, un nouvel essai doit pouvoir repasser.
	f.purchases.commitErr = nil
	_, err = f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
}

func TestSettle_CommitFailureRollsBackEverything(t *testing.T) {
	f := newEngineFixture()
	f.purchases.commitErr = assert.AnError

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		UserID:       "u1",
		RequestID:    "req-1",
		Lines:        twoGameCart(),
		DiscountCode: "SAVE10",
	})

	assert.ErrorIs(t, err, ErrServerUnavailable)

	// Jamais de wallet débité sans entitlements: débit compensé, code rendu.
	assert.Equal(t, 5000.0, f.wallet.balance)
	assert.Equal(t, []float64{900}, f.wallet.credits)
	assert.Zero(t, f.discounts.codes["SAVE10"].UsedCount)
	assert.Equal(t, 1, f.discounts.releaseCalls)
	assert.Empty(t, f.cart.removed)
}

func TestSettle_RequiresAuth(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Settle(context.Background(), SettleRequest{
		RequestID: "req-1",
		Lines:     twoGameCart(),
	})

	assert.ErrorIs(t, err, ErrAuthRequired)
}
