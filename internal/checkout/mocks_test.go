package checkout

import (
	"context"

	"gamevault_back_end/internal/models"
)

// mockCatalog implémente Catalog pour les tests
type mockCatalog struct {
	games map[int]models.Game
	err   error
}

func (m *mockCatalog) GamesByIDs(_ context.Context, ids []int) (map[int]models.Game, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int]models.Game, len(ids))
	for _, id := range ids {
		if g, ok := m.games[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

// mockDiscounts implémente DiscountStore pour les tests
type mockDiscounts struct {
	codes           map[string]models.DiscountCode
	userRedemptions map[string]int
	locks           map[string]bool

	consumeCalls int
	releaseCalls int
	lockReleases int

	// onConsume, si non nil, court-circuite ConsumeUsage pour simuler de la
	// contention CAS.
	onConsume func(code string, expectedUsed int) (bool, error)
}

func redemptionKey(code, userID string) string { return code + "|" + userID }

func (m *mockDiscounts) ByCode(_ context.Context, code string) (models.DiscountCode, error) {
	dc, ok := m.codes[code]
	if !ok {
		return models.DiscountCode{}, ErrCodeNotFound
	}
	return dc, nil
}

func (m *mockDiscounts) UserRedemptions(_ context.Context, code string, userID string) (int, error) {
	return m.userRedemptions[redemptionKey(code, userID)], nil
}

func (m *mockDiscounts) ConsumeUsage(_ context.Context, code string, expectedUsed int) (bool, error) {
	m.consumeCalls++
	if m.onConsume != nil {
		return m.onConsume(code, expectedUsed)
	}
	dc, ok := m.codes[code]
	if !ok {
		return false, ErrCodeNotFound
	}
	if dc.UsedCount != expectedUsed {
		return false, nil
	}
	dc.UsedCount++
	m.codes[code] = dc
	return true, nil
}

func (m *mockDiscounts) ReleaseUsage(_ context.Context, code string) error {
	m.releaseCalls++
	dc, ok := m.codes[code]
	if !ok {
		return ErrCodeNotFound
	}
	dc.UsedCount--
	m.codes[code] = dc
	return nil
}

func (m *mockDiscounts) ReserveRedemption(_ context.Context, code string, userID string) (bool, error) {
	if m.locks == nil {
		m.locks = map[string]bool{}
	}
	key := redemptionKey(code, userID)
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *mockDiscounts) ReleaseRedemption(_ context.Context, code string, userID string) error {
	m.lockReleases++
	delete(m.locks, redemptionKey(code, userID))
	return nil
}

// mockWallet implémente WalletLedger pour les tests
type mockWallet struct {
	balance float64
	debits  []float64
	credits []float64
	err     error
}

func (m *mockWallet) Balance(_ context.Context, _ string) (float64, error) {
	return m.balance, nil
}

func (m *mockWallet) Debit(_ context.Context, _ string, amount float64) error {
	if m.err != nil {
		return m.err
	}
	if m.balance < amount {
		return ErrInsufficientFunds
	}
	m.balance -= amount
	m.debits = append(m.debits, amount)
	return nil
}

func (m *mockWallet) Credit(_ context.Context, _ string, amount float64) error {
	m.balance += amount
	m.credits = append(m.credits, amount)
	return nil
}

// mockLibrary implémente Library pour les tests
type mockLibrary struct {
	owned map[int]bool
	err   error
}

func (m *mockLibrary) OwnedIDs(_ context.Context, _ string) (map[int]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int]bool, len(m.owned))
	for id, v := range m.owned {
		out[id] = v
	}
	return out, nil
}

// mockPurchases implémente PurchaseLog pour les tests
type mockPurchases struct {
	committed []CommitRecord
	byRequest map[string]models.Purchase
	inFlight  map[string]bool

	reserveErr error
	commitErr  error
}

func newMockPurchases() *mockPurchases {
	return &mockPurchases{
		byRequest: make(map[string]models.Purchase),
		inFlight:  make(map[string]bool),
	}
}

func (m *mockPurchases) ReserveRequest(_ context.Context, _, requestID string) (*models.Purchase, bool, error) {
	if m.reserveErr != nil {
		return nil, false, m.reserveErr
	}
	if p, ok := m.byRequest[requestID]; ok {
		return &p, false, nil
	}
	if m.inFlight[requestID] {
		return nil, false, nil
	}
	m.inFlight[requestID] = true
	return nil, true, nil
}

func (m *mockPurchases) ReleaseRequest(_ context.Context, _, requestID string) error {
	delete(m.inFlight, requestID)
	return nil
}

func (m *mockPurchases) Commit(_ context.Context, rec CommitRecord) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = append(m.committed, rec)
	m.byRequest[rec.RequestID] = rec.Purchase
	delete(m.inFlight, rec.RequestID)
	return nil
}

// mockSettledCart implémente SettledCart pour les tests
type mockSettledCart struct {
	removed [][]int
}

func (m *mockSettledCart) RemoveSettled(_ context.Context, _ string, gameIDs []int) error {
	m.removed = append(m.removed, gameIDs)
	return nil
}

// sanity guard: le fichier ne compile pas si un mock diverge de son port.
var (
	_ Catalog       = (*mockCatalog)(nil)
	_ DiscountStore = (*mockDiscounts)(nil)
	_ WalletLedger  = (*mockWallet)(nil)
	_ Library       = (*mockLibrary)(nil)
	_ PurchaseLog   = (*mockPurchases)(nil)
	_ SettledCart   = (*mockSettledCart)(nil)
)
