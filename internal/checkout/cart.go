package checkout

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gamevault_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const cartTTL = 30 * 24 * time.Hour

// CartStore garde le panier d'un utilisateur dans Redis sous forme de blob
// JSON, clé "cart:<user_id>". Le panier ne vit que le temps d'une session
// d'achat: il est vidé des lignes réglées après un règlement réussi.
type CartStore struct {
	rdb     *redis.Client
	library Library
}

func NewCartStore(rdb *redis.Client, library Library) *CartStore {
	return &CartStore{rdb: rdb, library: library}
}

func cartKey(userID string) string { return "cart:" + userID }

// Lines retourne les lignes du panier, vide si la clé n'existe pas.
func (s *CartStore) Lines(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := s.rdb.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil || data == "" {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart []models.CartItem
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddLine ajoute un jeu au panier. Politique de rejet (pas de no-op
// silencieux): ErrAlreadyOwned si le jeu est déjà dans la bibliothèque,
// ErrAlreadyInCart si une ligne existe déjà pour ce jeu.
func (s *CartStore) AddLine(ctx context.Context, userID string, game models.Game, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	owned, err := s.library.OwnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owned[game.ID] {
		return nil, ErrAlreadyOwned
	}

	cart, err := s.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range cart {
		if item.GameID == game.ID {
			return nil, ErrAlreadyInCart
		}
	}

	imageURL := game.ImageURL
	cart = append(cart, models.CartItem{
		GameID:   game.ID,
		Name:     game.Name,
		Price:    game.Price, // instantané d'affichage, le checkout re-price
		Quantity: quantity,
		ImageURL: imageURL,
	})

	if err := s.save(ctx, userID, cart); err != nil {
		return nil, err
	}
	s.publish(ctx, userID, "updated")
	return cart, nil
}

// RemoveLine retire la ligne d'un jeu; no-op si elle est absente.
func (s *CartStore) RemoveLine(ctx context.Context, userID string, gameID int) ([]models.CartItem, error) {
	cart, err := s.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	newCart := []models.CartItem{}
	for _, item := range cart {
		if item.GameID != gameID {
			newCart = append(newCart, item)
		}
	}

	if err := s.save(ctx, userID, newCart); err != nil {
		return nil, err
	}
	s.publish(ctx, userID, "updated")
	return newCart, nil
}

// Clear vide complètement le panier.
func (s *CartStore) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return err
	}
	s.publish(ctx, userID, "cleared")
	return nil
}

// RemoveSettled retire uniquement les lignes réglées: une ligne ajoutée
// entre la soumission et le commit du règlement reste dans le panier.
func (s *CartStore) RemoveSettled(ctx context.Context, userID string, gameIDs []int) error {
	settled := make(map[int]bool, len(gameIDs))
	for _, id := range gameIDs {
		settled[id] = true
	}

	cart, err := s.Lines(ctx, userID)
	if err != nil {
		return err
	}

	remaining := []models.CartItem{}
	for _, item := range cart {
		if !settled[item.GameID] {
			remaining = append(remaining, item)
		}
	}

	if len(remaining) == 0 {
		return s.Clear(ctx, userID)
	}
	if err := s.save(ctx, userID, remaining); err != nil {
		return err
	}
	s.publish(ctx, userID, "updated")
	return nil
}

// Subtotal retourne la somme prix × quantité, 0 pour un panier vide.
func Subtotal(lines []models.CartItem) float64 {
	var total float64
	for _, item := range lines {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (s *CartStore) save(ctx context.Context, userID string, cart []models.CartItem) error {
	jsonData, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(userID), jsonData, cartTTL).Err()
}

// publish notifie les websockets abonnés au panier de cet utilisateur.
func (s *CartStore) publish(ctx context.Context, userID, event string) {
	if err := s.rdb.Publish(ctx, cartKey(userID), event).Err(); err != nil {
		log.Printf("⚠️ Publication panier impossible pour %s: %v", userID, err)
	}
}
