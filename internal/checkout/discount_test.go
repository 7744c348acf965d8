package checkout

import (
	"context"
	"testing"
	"time"

	"gamevault_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(codes ...models.DiscountCode) (*Evaluator, *mockDiscounts) {
	store := &mockDiscounts{
		codes:           map[string]models.DiscountCode{},
		userRedemptions: map[string]int{},
	}
	for _, dc := range codes {
		store.codes[dc.Code] = dc
	}
	return NewEvaluator(store), store
}

func save10() models.DiscountCode {
	return models.DiscountCode{
		Code:     "SAVE10",
		Kind:     models.DiscountPercent,
		Value:    10,
		MinTotal: 500,
		Enabled:  true,
	}
}

func TestEvaluate_PercentDiscount(t *testing.T) {
	ev, _ := newTestEvaluator(save10())

	quote, err := ev.Evaluate(context.Background(), "SAVE10", 1000, "u1", evalNow)

	require.NoError(t, err)
	assert.Equal(t, 1000.0, quote.Subtotal)
	assert.Equal(t, 900.0, quote.FinalAmount)
	require.NotNil(t, quote.Discount)
	assert.Equal(t, "SAVE10", quote.Discount.Code)
}

func TestEvaluate_CodeIsCaseInsensitive(t *testing.T) {
	ev, _ := newTestEvaluator(save10())

	quote, err := ev.Evaluate(context.Background(), "  save10 ", 1000, "u1", evalNow)

	require.NoError(t, err)
	assert.Equal(t, 900.0, quote.FinalAmount)
}

func TestEvaluate_CodeNotFound(t *testing.T) {
	ev, _ := newTestEvaluator()

	_, err := ev.Evaluate(context.Background(), "NOPE", 1000, "u1", evalNow)

	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestEvaluate_BelowMinimum(t *testing.T) {
	ev, _ := newTestEvaluator(save10())

	_, err := ev.Evaluate(context.Background(), "SAVE10", 100, "u1", evalNow)

	var belowMin *BelowMinimumError
	require.ErrorAs(t, err, &belowMin)
	assert.Equal(t, 500.0, belowMin.Minimum)
}

func TestEvaluate_DisabledWinsOverOtherFailures(t *testing.T) {
	// Le code est désactivé ET sous le minimum: l'ordre strict des
	// vérifications impose que l'utilisateur voie "désactivé" d'abord.
	dc := save10()
	dc.Enabled = false
	ev, _ := newTestEvaluator(dc)

	_, err := ev.Evaluate(context.Background(), "SAVE10", 100, "u1", evalNow)

	assert.ErrorIs(t, err, ErrCodeDisabled)
}

func TestEvaluate_ActiveWindow(t *testing.T) {
	future := evalNow.Add(24 * time.Hour)
	past := evalNow.Add(-24 * time.Hour)

	notYet := save10()
	notYet.Code = "SOON"
	notYet.StartDate = &future

	expired := save10()
	expired.Code = "OLD"
	expired.EndDate = &past

	ev, _ := newTestEvaluator(notYet, expired)

	_, err := ev.Evaluate(context.Background(), "SOON", 1000, "u1", evalNow)
	assert.ErrorIs(t, err, ErrCodeNotYetValid)

	_, err = ev.Evaluate(context.Background(), "OLD", 1000, "u1", evalNow)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestEvaluate_UsageLimitReached(t *testing.T) {
	dc := save10()
	dc.UsageLimit = 3
	dc.UsedCount = 3
	ev, _ := newTestEvaluator(dc)

	_, err := ev.Evaluate(context.Background(), "SAVE10", 1000, "u1", evalNow)

	assert.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestEvaluate_AlreadyUsedByUser(t *testing.T) {
	dc := save10()
	dc.SingleUsePerUser = true
	ev, store := newTestEvaluator(dc)
	store.userRedemptions[redemptionKey("SAVE10", "u1")] = 1

	_, err := ev.Evaluate(context.Background(), "SAVE10", 1000, "u1", evalNow)
	assert.ErrorIs(t, err, ErrAlreadyUsedByUser)

	// Un autre utilisateur n'est pas concerné.
	quote, err := ev.Evaluate(context.Background(), "SAVE10", 1000, "u2", evalNow)
	require.NoError(t, err)
	assert.Equal(t, 900.0, quote.FinalAmount)
}

func TestEvaluate_IsPureQuery(t *testing.T) {
	// L'évaluation ne consomme jamais le compteur d'utilisation.
	ev, store := newTestEvaluator(save10())

	_, err := ev.Evaluate(context.Background(), "SAVE10", 1000, "u1", evalNow)

	require.NoError(t, err)
	assert.Zero(t, store.consumeCalls)
	assert.Zero(t, store.codes["SAVE10"].UsedCount)
}

func TestFinalAmount_PercentProperty(t *testing.T) {
	subtotals := []float64{0, 1, 49.99, 100, 1000, 123456.78}
	percents := []float64{0.5, 10, 33, 100}

	for _, s := range subtotals {
		for _, p := range percents {
			dc := models.DiscountCode{Kind: models.DiscountPercent, Value: p}
			got := FinalAmount(dc, s)
			assert.InDelta(t, s-s*p/100, got, 1e-9, "subtotal=%v percent=%v", s, p)
			assert.GreaterOrEqual(t, got, 0.0)
		}
	}
}

func TestFinalAmount_FixedFloorsAtZero(t *testing.T) {
	cases := []struct {
		subtotal float64
		fixed    float64
		want     float64
	}{
		{1000, 50, 950},
		{100, 100, 0},
		{100, 250, 0}, // jamais négatif
		{0, 10, 0},
	}

	for _, tc := range cases {
		dc := models.DiscountCode{Kind: models.DiscountFixed, Value: tc.fixed}
		assert.Equal(t, tc.want, FinalAmount(dc, tc.subtotal), "subtotal=%v fixed=%v", tc.subtotal, tc.fixed)
	}
}
