package user

import (
	"errors"
	"net/http"
	"time"

	"gamevault_back_end/internal/middleware"
	"gamevault_back_end/internal/models"
	"gamevault_back_end/internal/repository"
	"gamevault_back_end/internal/services"
	"gamevault_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	userRepo   repository.UserRepo
	walletRepo repository.WalletRepo
)

// ================== AUTH LOCALE ==================

// 🟢 POST /api/auth/register
func Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur hash mot de passe"})
		return
	}

	newUser := models.User{
		ID:        uuid.NewString(),
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashedPassword),
		Role:      "user",
		Provider:  "local",
		CreatedAt: time.Now(),
	}

	ctx := c.Request.Context()
	if err := userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) || errors.Is(err, repository.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	// Le wallet démarre à zéro, tout crédit passe par un dépôt.
	if err := walletRepo.InitWallet(ctx, newUser.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur initialisation wallet"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":  newUser.ID,
		"username": newUser.Username,
		"email":    newUser.Email,
		"role":     newUser.Role,
	})
}

// 🟢 POST /api/auth/login — identifier = e-mail ou nom d'utilisateur
func Login(c *gin.Context) {
	var input struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := userRepo.ByIdentifier(c.Request.Context(), input.Identifier)
	if err != nil {
		middleware.RecordFailedLogin(input.Identifier)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(input.Password)); err != nil {
		middleware.RecordFailedLogin(input.Identifier)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects"})
		return
	}

	middleware.ClearLoginAttempts(input.Identifier)

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
		"role":     account.Role,
	})
}

// ================== PROFIL ==================

// 🟢 GET /api/me
func Me(c *gin.Context) {
	userID := c.GetString("user_id")

	account, err := userRepo.ByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// 🟢 PUT /api/me
func UpdateMe(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	account, err := userRepo.ByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if input.Username == "" {
		input.Username = account.Username
	}
	if input.AvatarURL == "" {
		input.AvatarURL = account.AvatarURL
	}

	if err := userRepo.UpdateProfile(c.Request.Context(), userID, input.Username, input.AvatarURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour"})
}

// 🟢 POST /api/me/avatar — upload multipart vers MinIO
func UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}

	url, err := services.UploadFile(services.BucketAvatars, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload avatar"})
		return
	}

	if err := userRepo.UpdateAvatar(c.Request.Context(), userID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour avatar"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
