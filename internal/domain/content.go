package domain

import "time"

// Article is a financial-literacy article.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ImageHint string    `json:"imageHint,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Offer is a promotional offer shown to borrowers while active.
type Offer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Discount    string    `json:"discount"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateArticleRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Author    string `json:"author" validate:"required,max=100"`
	Excerpt   string `json:"excerpt" validate:"max=500"`
	Content   string `json:"content" validate:"required"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	ImageHint string `json:"imageHint" validate:"max=100"`
}

type CreateOfferRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=1000"`
	Discount    string `json:"discount" validate:"required,max=50"`
	IsActive    bool   `json:"isActive"`
}
