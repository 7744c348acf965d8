package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gamevault_back_end/internal/auth"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"
	"gamevault_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

type ctxKey string

const ProviderKey ctxKey = "provider"

// ================== AUTH SOCIALE ==================

// AuthURL retourne l'URL d'autorisation pour les fronts qui gèrent la
// redirection eux-mêmes plutôt que de passer par BeginAuth.
func AuthURL(c *gin.Context) {
	provider, ok := auth.Lookup(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider non supporté"})
		return
	}

	state := c.Query("state")
	if state == "" {
		state = uuid.NewString()
	}
	c.JSON(http.StatusOK, gin.H{"url": provider.AuthURL(state), "state": state})
}

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if _, ok := auth.Lookup(provider); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider non supporté"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if _, ok := auth.Lookup(provider); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider non supporté"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Find-or-create: un compte social réutilise le compte local qui porte le
	// même e-mail.
	account, err := userRepo.ByEmail(ctx, gothUser.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		account = models.User{
			ID:        uuid.NewString(),
			Username:  gothUser.NickName,
			Email:     gothUser.Email,
			Role:      "user",
			AvatarURL: gothUser.AvatarURL,
			Provider:  provider,
			CreatedAt: time.Now(),
		}
		if account.Username == "" {
			account.Username = gothUser.Name
		}
		if err := userRepo.Create(ctx, account); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
			return
		}
		if err := walletRepo.InitWallet(ctx, account.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur initialisation wallet"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture compte"})
		return
	}

	token, err := utils.GenerateJWT(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"user_id":  account.ID,
		"username": account.Username,
		"email":    account.Email,
		"provider": account.Provider,
	})
}
