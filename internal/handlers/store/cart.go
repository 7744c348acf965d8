package store

import (
	"net/http"
	"strconv"

	"gamevault_back_end/internal/checkout"

	"github.com/gin-gonic/gin"
)

// 🟢 GET /api/cart
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")

	cart, err := carts.Lines(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    cart,
		"subtotal": checkout.Subtotal(cart),
	})
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		GameID   int `json:"game_id" binding:"required"`
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// La ligne du panier est figée depuis le catalogue, pas depuis le client.
	game, err := catalogRepo.GameByID(c.Request.Context(), input.GameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Jeu introuvable"})
		return
	}

	cart, err := carts.AddLine(c.Request.Context(), userID, game, input.Quantity)
	if err != nil {
		c.JSON(checkout.StatusFor(err), gin.H{
			"error": err.Error(),
			"code":  checkout.ErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    cart,
		"subtotal": checkout.Subtotal(cart),
	})
}

// 🟢 DELETE /api/cart/:gameId
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")

	gameID, err := strconv.Atoi(c.Param("gameId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	cart, err := carts.RemoveLine(c.Request.Context(), userID, gameID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    cart,
		"subtotal": checkout.Subtotal(cart),
	})
}

// 🟢 DELETE /api/cart
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := carts.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vidage panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
