package admin

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"
	"gamevault_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

var catalogRepo repository.CatalogRepo

// CreateGame - Ajouter un jeu au catalogue (Admin seulement)
func CreateGame(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required"`
		Price       float64    `json:"price" binding:"required"`
		CategoryID  int        `json:"category_id"`
		Description string     `json:"description"`
		ReleaseDate *time.Time `json:"release_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix négatif interdit"})
		return
	}

	ctx := c.Request.Context()
	id, err := catalogRepo.NextGameID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur allocation identifiant"})
		return
	}

	now := time.Now()
	game := models.Game{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := catalogRepo.SaveGame(ctx, game); err != nil {
		log.Printf("❌ Erreur création jeu: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création jeu"})
		return
	}

	// Indexation asynchrone: l'échec Elastic ne bloque pas la création.
	go services.IndexGame(game)

	c.JSON(http.StatusCreated, game)
}

// UpdateGame - Modifier un jeu existant
func UpdateGame(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	ctx := c.Request.Context()
	game, err := catalogRepo.GameByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Jeu introuvable"})
		return
	}

	var req struct {
		Name        *string    `json:"name"`
		Price       *float64   `json:"price"`
		CategoryID  *int       `json:"category_id"`
		Description *string    `json:"description"`
		ReleaseDate *time.Time `json:"release_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.Name != nil {
		game.Name = *req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prix négatif interdit"})
			return
		}
		game.Price = *req.Price
	}
	if req.CategoryID != nil {
		game.CategoryID = *req.CategoryID
	}
	if req.Description != nil {
		game.Description = *req.Description
	}
	if req.ReleaseDate != nil {
		game.ReleaseDate = req.ReleaseDate
	}
	game.UpdatedAt = time.Now()

	if err := catalogRepo.SaveGame(ctx, game); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour jeu"})
		return
	}

	go services.IndexGame(game)

	c.JSON(http.StatusOK, game)
}

// DeleteGame - Retirer un jeu du catalogue. Les entitlements existants
// restent: retirer un jeu de la vente ne le retire pas des bibliothèques.
func DeleteGame(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	ctx := c.Request.Context()
	if _, err := catalogRepo.GameByID(ctx, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Jeu introuvable"})
		return
	}

	if err := catalogRepo.DeleteGame(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression jeu"})
		return
	}

	go services.DeleteGameIndex(id)

	c.JSON(http.StatusOK, gin.H{"message": "Jeu retiré du catalogue"})
}

// UploadGameCover - POST multipart de la jaquette vers MinIO
func UploadGameCover(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	ctx := c.Request.Context()
	game, err := catalogRepo.GameByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Jeu introuvable"})
		return
	}

	file, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}

	url, err := services.UploadFile(services.BucketCovers, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload jaquette"})
		return
	}

	game.ImageURL = url
	game.UpdatedAt = time.Now()
	if err := catalogRepo.SaveGame(ctx, game); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour jeu"})
		return
	}

	go services.IndexGame(game)

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// CreateCategory - Ajouter une catégorie
func CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx := c.Request.Context()
	id, err := catalogRepo.NextCategoryID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur allocation identifiant"})
		return
	}

	cat := models.Category{ID: id, Name: req.Name}
	if err := catalogRepo.SaveCategory(ctx, cat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création catégorie"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// DeleteCategory - Supprimer une catégorie
func DeleteCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	if err := catalogRepo.DeleteCategory(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression catégorie"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catégorie supprimée"})
}
