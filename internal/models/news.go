package models

// NewsItem is a headline taken from NewsAPI.
type NewsItem struct {
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Source      string  `json:"source"`
	Image       *string `json:"image"`
	PublishedAt *string `json:"published_at"`
}
