package admin

import (
	"log"
	"net/http"
	"time"

	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var discountRepo repository.DiscountRepo

// CreateDiscountCode - Créer un nouveau code promo (Admin seulement)
func CreateDiscountCode(c *gin.Context) {
	var req struct {
		Code             string     `json:"code" binding:"required"`
		Kind             string     `json:"kind" binding:"required"` // "percent" ou "fixed"
		Value            float64    `json:"value" binding:"required"`
		MinTotal         float64    `json:"min_total"`
		UsageLimit       int        `json:"usage_limit"`
		SingleUsePerUser bool       `json:"single_use_per_user"`
		StartDate        *time.Time `json:"start_date"`
		EndDate          *time.Time `json:"end_date"`
		Enabled          *bool      `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	if req.Kind != models.DiscountPercent && req.Kind != models.DiscountFixed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de code invalide"})
		return
	}
	if req.Kind == models.DiscountPercent && (req.Value <= 0 || req.Value > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage doit être entre 1 et 100"})
		return
	}
	if req.Kind == models.DiscountFixed && req.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant fixe doit être positif"})
		return
	}
	if req.UsageLimit < 0 || req.MinTotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limites négatives interdites"})
		return
	}

	now := time.Now()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	dc := models.DiscountCode{
		ID:               gocql.TimeUUID(),
		Code:             checkout.NormalizeCode(req.Code),
		Kind:             req.Kind,
		Value:            req.Value,
		MinTotal:         req.MinTotal,
		UsageLimit:       req.UsageLimit,
		UsedCount:        0,
		SingleUsePerUser: req.SingleUsePerUser,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Enabled:          enabled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	applied, err := discountRepo.Create(c.Request.Context(), dc)
	if err != nil {
		log.Printf("❌ Erreur création code promo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du code"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce code promo existe déjà"})
		return
	}

	log.Printf("✅ Code promo créé: %s (%s %.2f)", dc.Code, dc.Kind, dc.Value)
	c.JSON(http.StatusCreated, dc)
}

// ListDiscountCodes - Lister tous les codes promo
func ListDiscountCodes(c *gin.Context) {
	codes, err := discountRepo.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture codes"})
		return
	}
	if codes == nil {
		codes = []models.DiscountCode{}
	}
	c.JSON(http.StatusOK, codes)
}

// UpdateDiscountCode - Modifier un code existant (used_count reste intouché)
func UpdateDiscountCode(c *gin.Context) {
	code := c.Param("code")

	existing, err := discountRepo.ByCode(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Code promo introuvable"})
		return
	}

	var req struct {
		Kind             *string    `json:"kind"`
		Value            *float64   `json:"value"`
		MinTotal         *float64   `json:"min_total"`
		UsageLimit       *int       `json:"usage_limit"`
		SingleUsePerUser *bool      `json:"single_use_per_user"`
		StartDate        *time.Time `json:"start_date"`
		EndDate          *time.Time `json:"end_date"`
		Enabled          *bool      `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.Kind != nil {
		if *req.Kind != models.DiscountPercent && *req.Kind != models.DiscountFixed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Type de code invalide"})
			return
		}
		existing.Kind = *req.Kind
	}
	if req.Value != nil {
		existing.Value = *req.Value
	}
	if existing.Kind == models.DiscountPercent && (existing.Value <= 0 || existing.Value > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage doit être entre 1 et 100"})
		return
	}
	if existing.Kind == models.DiscountFixed && existing.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant fixe doit être positif"})
		return
	}
	if req.MinTotal != nil {
		existing.MinTotal = *req.MinTotal
	}
	if req.UsageLimit != nil {
		existing.UsageLimit = *req.UsageLimit
	}
	if req.SingleUsePerUser != nil {
		existing.SingleUsePerUser = *req.SingleUsePerUser
	}
	if req.StartDate != nil {
		existing.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		existing.EndDate = req.EndDate
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	if err := discountRepo.Update(c.Request.Context(), existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour code"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// DeleteDiscountCode - Supprimer un code promo
func DeleteDiscountCode(c *gin.Context) {
	code := c.Param("code")

	if _, err := discountRepo.ByCode(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Code promo introuvable"})
		return
	}

	if err := discountRepo.Delete(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code promo supprimé"})
}
