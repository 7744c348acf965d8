package wallet

import (
	"net/http"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

var walletRepo repository.WalletRepo

// 🟢 GET /api/wallet
func GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	balance, err := walletRepo.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture solde"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// 🟢 POST /api/wallet/deposit — crédit direct (dev / admin top-up)
func Deposit(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Amount float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide"})
		return
	}

	tx, err := walletRepo.Deposit(c.Request.Context(), userID, input.Amount, "Dépôt sur le wallet")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur dépôt"})
		return
	}

	balance, err := walletRepo.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture solde"})
		return
	}

	database.Redis.Publish(c.Request.Context(), "wallet:"+userID, "updated")

	c.JSON(http.StatusOK, gin.H{
		"balance":     balance,
		"transaction": tx,
	})
}

// 🟢 GET /api/wallet/transactions — du plus récent au plus ancien
func GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")

	txs, err := walletRepo.Transactions(c.Request.Context(), userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture transactions"})
		return
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}
	c.JSON(http.StatusOK, txs)
}
