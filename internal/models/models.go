package models

// Post - запись новостного блога.
type Post struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}
