package models

import "time"

type Favorite struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	CoinID  string    `json:"coin_id"`
	AddedAt time.Time `json:"created_at"`
}
