package domain

import "time"

// Post is a blog post. Likes and Favorites are counts filled in on read.
type Post struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	Likes     int
	Favorites int
	CreatedAt time.Time
	UpdatedAt time.Time
}
