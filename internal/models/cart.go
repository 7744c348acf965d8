package models

type CartItem struct {
	GameID   int     `json:"game_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"` // prix d'affichage, re-calculé au checkout
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"image_url,omitempty"`
}
