package admin

import (
	"net/http"

	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

var (
	userRepo   repository.UserRepo
	walletRepo repository.WalletRepo
)

// ListUsers - Lister tous les comptes (Admin seulement)
func ListUsers(c *gin.Context) {
	users, err := userRepo.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateurs"})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// ListAllTransactions - Journal wallet complet (vue admin)
func ListAllTransactions(c *gin.Context) {
	txs, err := walletRepo.AllTransactions(c.Request.Context(), 500)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture transactions"})
		return
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}
	c.JSON(http.StatusOK, txs)
}
