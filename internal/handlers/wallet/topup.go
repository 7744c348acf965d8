package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

// ✅ POST /api/wallet/topup — crée un PaymentIntent Stripe pour recharger le wallet
func CreateTopUpIntent(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount * 100)),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"user_id": userID,
			"email":   email,
			"amount":  fmt.Sprintf("%.2f", req.Amount),
			"purpose": "wallet_topup",
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour %s", intent.ID, req.Amount, email)

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
	})
}

// ✅ Webhook Stripe
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	c.Status(http.StatusOK)
}

// handleStripeEvent crédite le wallet une seule fois par PaymentIntent: le
// verrou wallet_topups absorbe les webhooks livrés plusieurs fois.
func handleStripeEvent(event stripe.Event) {
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	userID := pi.Metadata["user_id"]
	if userID == "" || pi.Metadata["purpose"] != "wallet_topup" {
		log.Println("⚠️ Métadonnées incomplètes, webhook ignoré")
		return
	}

	amount, err := strconv.ParseFloat(pi.Metadata["amount"], 64)
	if err != nil || amount <= 0 {
		amount = float64(pi.Amount) / 100
	}

	ctx := context.Background()

	applied, err := walletRepo.RecordTopUp(ctx, pi.ID, userID, amount)
	if err != nil {
		log.Println("❌ Erreur verrou top-up:", err)
		return
	}
	if !applied {
		log.Printf("🔁 Top-up %s déjà crédité, on ignore.", pi.ID)
		return
	}

	if err := walletRepo.Credit(ctx, userID, amount); err != nil {
		log.Printf("❌ CRITIQUE: crédit top-up %s impossible pour %s: %v", pi.ID, userID, err)
		return
	}

	tx := models.WalletTransaction{
		ID:          gocql.TimeUUID(),
		UserID:      userID,
		Type:        models.TxDeposit,
		Amount:      amount,
		Description: "Rechargement du wallet (Stripe)",
		CreatedAt:   time.Now(),
	}
	if err := walletRepo.RecordTransaction(ctx, tx); err != nil {
		log.Printf("⚠️ Journalisation top-up %s impossible: %v", pi.ID, err)
	}

	database.Redis.Publish(ctx, "wallet:"+userID, "updated")
	log.Printf("✅ Wallet crédité de %.2f€ pour %s (intent %s)", amount, userID, pi.ID)
}
