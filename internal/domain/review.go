package domain

import "time"

// Review is a customer rating of a wine.
type Review struct {
	ID        string
	WineID    string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Message is a customer-to-support conversation entry.
type Message struct {
	ID        string
	UserID    string
	OrderID   *string
	Subject   string
	Body      string
	IsRead    bool
	CreatedAt time.Time
}

// WishlistItem records a wine saved by a customer.
type WishlistItem struct {
	ID        string
	UserID    string
	WineID    string
	CreatedAt time.Time
}
