package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gamevault_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
)

// LoginRateLimit limite les tentatives de connexion par identifiant
func LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)

		var input struct {
			Identifier string `json:"identifier"`
		}

		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Identifier == "" {
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			c.Next()
			return
		}

		// Remettre le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		ctx := context.Background()
		key := "login_attempts:" + input.Identifier

		// Vérifier si l'utilisateur est en cooldown
		cooldownKey := "login_cooldown:" + input.Identifier
		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			// Activer le cooldown
			database.Redis.Set(ctx, cooldownKey, "1", LoginCooldown)
			database.Redis.Del(ctx, key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de tentatives échouées. Compte temporairement bloqué",
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RegisterRateLimit limite les créations de compte par adresse IP
func RegisterRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de créations de compte. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := database.Redis.Incr(ctx, key).Result()
		database.Redis.Expire(ctx, key, RegisterCooldown)
		if attempts > RegisterMaxAttempts {
			// Activer le cooldown
			database.Redis.Set(ctx, cooldownKey, "1", RegisterCooldown)
			database.Redis.Del(ctx, key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de créations de compte depuis cette adresse",
				"retry_after": int(RegisterCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RecordFailedLogin incrémente le compteur de tentatives après un échec
func RecordFailedLogin(identifier string) {
	ctx := context.Background()
	key := "login_attempts:" + identifier
	database.Redis.Incr(ctx, key)
	database.Redis.Expire(ctx, key, LoginCooldown)
}

// ClearLoginAttempts remet le compteur à zéro après une connexion réussie
func ClearLoginAttempts(identifier string) {
	database.Redis.Del(context.Background(), "login_attempts:"+identifier)
}
