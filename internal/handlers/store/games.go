package store

import (
	"context"
	"net/http"
	"strconv"

	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

const rankingKey = "ranking:games"

// 🟢 GET /api/games
func ListGames(c *gin.Context) {
	games, err := catalogRepo.AllGames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catalogue"})
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	c.JSON(http.StatusOK, games)
}

// 🟢 GET /api/games/:id
func GetGame(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	game, err := catalogRepo.GameByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Jeu introuvable"})
		return
	}
	c.JSON(http.StatusOK, game)
}

// 🟢 GET /api/games/search?q=...
func SearchGames(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q manquant"})
		return
	}

	results, err := services.SearchGames(query)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// 🟢 GET /api/categories
func ListCategories(c *gin.Context) {
	categories, err := catalogRepo.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catégories"})
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// 🟢 GET /api/games/ranking — top ventes depuis le ZSET Redis
func GameRanking(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := database.Redis.ZRevRangeWithScores(ctx, rankingKey, 0, 9).Result()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture classement"})
		return
	}

	type rankedGame struct {
		Rank  int         `json:"rank"`
		Sales int         `json:"sales"`
		Game  models.Game `json:"game"`
	}

	ranking := []rankedGame{}
	for i, entry := range entries {
		member, _ := entry.Member.(string)
		gameID, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		game, err := catalogRepo.GameByID(ctx, gameID)
		if err != nil {
			// Jeu retiré du catalogue, on le saute sans casser le classement.
			continue
		}
		ranking = append(ranking, rankedGame{
			Rank:  i + 1,
			Sales: int(entry.Score),
			Game:  game,
		})
	}

	c.JSON(http.StatusOK, ranking)
}

// bumpRanking incrémente le score de vente de chaque jeu réglé.
func bumpRanking(ctx context.Context, gameIDs []int) {
	for _, id := range gameIDs {
		database.Redis.ZIncrBy(ctx, rankingKey, 1, strconv.Itoa(id))
	}
}
