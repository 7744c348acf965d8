package store

import (
	"net/http"

	"gamevault_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// 🟢 GET /api/library — jeux possédés, joints au catalogue
func GetLibrary(c *gin.Context) {
	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	entitlements, err := libraryRepo.Entitlements(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture bibliothèque"})
		return
	}

	ids := make([]int, 0, len(entitlements))
	for _, e := range entitlements {
		ids = append(ids, e.GameID)
	}
	games, err := catalogRepo.GamesByIDs(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catalogue"})
		return
	}

	type libraryEntry struct {
		Entitlement models.Entitlement `json:"entitlement"`
		Game        *models.Game       `json:"game,omitempty"`
	}

	library := make([]libraryEntry, 0, len(entitlements))
	for _, e := range entitlements {
		entry := libraryEntry{Entitlement: e}
		if g, ok := games[e.GameID]; ok {
			entry.Game = &g
		}
		library = append(library, entry)
	}

	c.JSON(http.StatusOK, library)
}

// 🟢 GET /api/purchases — historique du plus récent au plus ancien
func GetPurchases(c *gin.Context) {
	userID := c.GetString("user_id")

	purchases, err := purchaseRepo.ByUser(c.Request.Context(), userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture historique"})
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	c.JSON(http.StatusOK, purchases)
}
