package checkout

import (
	"context"
	"testing"

	"gamevault_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartStore(t *testing.T, library *mockLibrary) *CartStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartStore(client, library)
}

func starDrifter() models.Game {
	return models.Game{ID: 7, Name: "Star Drifter", Price: 400}
}

func TestCart_AddAndList(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})
	ctx := context.Background()

	cart, err := store.AddLine(ctx, "u1", starDrifter(), 1)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 7, cart[0].GameID)
	assert.Equal(t, 400.0, cart[0].Price)
	assert.Equal(t, 1, cart[0].Quantity)

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cart, lines)
}

func TestCart_EmptyCartIsNotAnError(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})

	lines, err := store.Lines(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, 0.0, Subtotal(lines))
}

func TestCart_RejectsDuplicateLine(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})
	ctx := context.Background()

	_, err := store.AddLine(ctx, "u1", starDrifter(), 1)
	require.NoError(t, err)

	_, err = store.AddLine(ctx, "u1", starDrifter(), 1)
	assert.ErrorIs(t, err, ErrAlreadyInCart)

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestCart_RejectsOwnedGame(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{7: true}})

	_, err := store.AddLine(context.Background(), "u1", starDrifter(), 1)

	assert.ErrorIs(t, err, ErrAlreadyOwned)
}

func TestCart_RemoveAbsentLineIsNoop(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})
	ctx := context.Background()

	_, err := store.AddLine(ctx, "u1", starDrifter(), 1)
	require.NoError(t, err)

	lines, err := store.RemoveLine(ctx, "u1", 999)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	lines, err = store.RemoveLine(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_Subtotal(t *testing.T) {
	lines := []models.CartItem{
		{GameID: 7, Price: 400, Quantity: 1},
		{GameID: 8, Price: 600, Quantity: 2},
	}

	assert.Equal(t, 1600.0, Subtotal(lines))
}

func TestCart_RemoveSettledKeepsLaterLines(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})
	ctx := context.Background()

	_, err := store.AddLine(ctx, "u1", starDrifter(), 1)
	require.NoError(t, err)
	_, err = store.AddLine(ctx, "u1", models.Game{ID: 8, Name: "Moss Kingdom", Price: 600}, 1)
	require.NoError(t, err)

	// La ligne 8 a été ajoutée pendant le règlement de la ligne 7: elle
	// doit survivre au nettoyage post-commit.
	require.NoError(t, store.RemoveSettled(ctx, "u1", []int{7}))

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 8, lines[0].GameID)
}

func TestCart_Clear(t *testing.T) {
	store := setupCartStore(t, &mockLibrary{owned: map[int]bool{}})
	ctx := context.Background()

	_, err := store.AddLine(ctx, "u1", starDrifter(), 1)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "u1"))

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
