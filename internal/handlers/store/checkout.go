package store

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// 🟢 GET /api/discount/:code/quote?subtotal=...
// Évaluation pure: aucun compteur n'est consommé ici, le code est re-validé
// intégralement au moment du règlement.
func QuoteDiscount(c *gin.Context) {
	userID := c.GetString("user_id")
	code := c.Param("code")
	ctx := c.Request.Context()

	var subtotal float64
	if raw := c.Query("subtotal"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Sous-total invalide"})
			return
		}
		subtotal = parsed
	} else {
		lines, err := carts.Lines(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
			return
		}
		subtotal = checkout.Subtotal(lines)
	}

	quote, err := eval.Evaluate(ctx, code, subtotal, userID, time.Now())
	if err != nil {
		c.JSON(checkout.StatusFor(err), gin.H{
			"error": err.Error(),
			"code":  checkout.ErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// 🟢 POST /api/checkout
// Le client fournit une clé d'idempotence: un double-clic ou un retry réseau
// retombe sur l'achat original.
func Checkout(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")
	ctx := c.Request.Context()

	var input struct {
		RequestID    string `json:"request_id" binding:"required"`
		DiscountCode string `json:"discount_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Clé d'idempotence manquante"})
		return
	}

	lines, err := carts.Lines(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	purchase, err := engine.Settle(ctx, checkout.SettleRequest{
		UserID:       userID,
		RequestID:    input.RequestID,
		Lines:        lines,
		DiscountCode: input.DiscountCode,
	})
	if err != nil {
		c.JSON(checkout.StatusFor(err), gin.H{
			"error": err.Error(),
			"code":  checkout.ErrorCode(err),
		})
		return
	}

	balance, err := ledger.Balance(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Lecture solde après règlement impossible pour %s: %v", userID, err)
	}

	// Effets secondaires hors du chemin critique: classement, reçu, wallet.
	go afterSettlement(purchase, email)

	c.JSON(http.StatusOK, gin.H{
		"purchase": purchase,
		"balance":  balance,
	})
}

// afterSettlement pousse les effets non transactionnels d'un achat committé.
func afterSettlement(purchase models.Purchase, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bumpRanking(ctx, purchase.GameIDs)
	if err := catalogRepo.BumpSales(ctx, purchase.GameIDs); err != nil {
		log.Printf("⚠️ Mise à jour sales_count impossible: %v", err)
	}

	// Notifier les websockets wallet de l'utilisateur.
	database.Redis.Publish(ctx, "wallet:"+purchase.UserID, "updated")

	if email == "" {
		return
	}

	games, err := catalogRepo.GamesByIDs(ctx, purchase.GameIDs)
	if err != nil {
		log.Printf("⚠️ Lecture jeux pour le reçu impossible: %v", err)
		return
	}
	list := make([]models.Game, 0, len(games))
	for _, id := range purchase.GameIDs {
		if g, ok := games[id]; ok {
			list = append(list, g)
		}
	}

	html := utils.GeneratePurchaseReceiptHTML(purchase, list)

	var pdf []byte
	if qr, err := utils.GeneratePurchaseQR(purchase.ID.String()); err == nil {
		pdf, err = utils.RenderReceiptPDF(html + `<img src="` + qr + `" alt="QR">`)
		if err != nil {
			log.Printf("⚠️ Génération PDF du reçu impossible: %v", err)
			pdf = nil
		}
	}

	if err := utils.SendPurchaseEmail(email, "Votre reçu GameVault", html, pdf); err != nil {
		log.Printf("⚠️ Envoi du reçu à %s impossible: %v", email, err)
	}
}
