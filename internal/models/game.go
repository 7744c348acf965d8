package models

import "time"

type Game struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	CategoryID  int        `json:"category_id"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	SalesCount  int        `json:"sales_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
