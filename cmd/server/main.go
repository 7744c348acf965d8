package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gamevault_back_end/internal/auth"
	"gamevault_back_end/internal/config"
	"gamevault_back_end/internal/database"
	"gamevault_back_end/internal/routes"
	"gamevault_back_end/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/stripe/stripe-go/v83"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Println("⚠️ Stripe non configuré : les rechargements par carte sont désactivés")
	} else {
		log.Println("✅ Stripe initialisé")
	}

	database.ConnectDatabases()
	defer database.CloseScylla()

	services.ConnectMinio()

	initOAuthProviders()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(os.Getenv("CORS_ORIGINS"), ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur GameVault lancé sur le port", port)
	r.Run(":" + port)
}

func initOAuthProviders() {
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET manquant, OAuth désactivé")
		return
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // false en dev, true en prod
		SameSite: http.SameSiteLaxMode,
	}

	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		// Dernier segment d'URL de la forme /api/auth/google/callback
		parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
		for i, part := range parts {
			if part == "auth" && i+1 < len(parts) {
				return parts[i+1], nil
			}
		}
		return "", errors.New("provider not found")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")

	if googleClientID == "" || googleClientSecret == "" {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return
	}

	goth.UseProviders(google.New(
		googleClientID,
		googleClientSecret,
		baseURL+"/api/auth/google/callback",
	))
	auth.Register(&auth.OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			RedirectURL:  baseURL + "/api/auth/google/callback",
			Scopes:       []string{"email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
	})
	log.Println("✅ Google OAuth activé")
}
