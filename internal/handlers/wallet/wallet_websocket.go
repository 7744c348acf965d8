package wallet

import (
	"context"
	"log"
	"net/http"
	"time"

	"gamevault_back_end/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// WalletWebSocket pousse le solde en temps réel après chaque dépôt ou achat
func WalletWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(401, gin.H{"error": "Non authentifié"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	pubsub := database.Redis.Subscribe(ctx, "wallet:"+userID)
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Synchronisation wallet activée",
	})

	for {
		select {
		case msg := <-ch:
			if msg.Payload != "updated" {
				continue
			}
			balance, err := walletRepo.Balance(ctx, userID)
			if err != nil {
				log.Printf("⚠️ Lecture solde websocket impossible pour %s: %v", userID, err)
				continue
			}
			if err := conn.WriteJSON(map[string]interface{}{
				"type":    "wallet_updated",
				"balance": balance,
			}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
