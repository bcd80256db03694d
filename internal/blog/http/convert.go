package http

import (
	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
)

func toProfile(u domain.User) blogsdk.UserProfile {
	return blogsdk.UserProfile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		MFAEnabled: u.MFAEnabled(),
	}
}

func toPost(p domain.Post) blogsdk.PostResponse {
	return blogsdk.PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Likes:     p.Likes,
		Favorites: p.Favorites,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPostList(posts []domain.Post) blogsdk.PostList {
	out := blogsdk.PostList{Posts: make([]blogsdk.PostResponse, 0, len(posts))}
	for _, p := range posts {
		out.Posts = append(out.Posts, toPost(p))
	}
	return out
}
