package blogsdk

import (
	"context"
	"net/http"
	"strconv"
)

func postPath(id int64, suffix string) string {
	return "/v1/posts/" + strconv.FormatInt(id, 10) + suffix
}

// ListPosts returns every post, newest first.
func (s *Session) ListPosts(ctx context.Context) ([]PostResponse, error) {
	return s.listPosts(ctx, "/v1/posts")
}

// LikedPosts returns the posts the caller has liked.
func (s *Session) LikedPosts(ctx context.Context) ([]PostResponse, error) {
	return s.listPosts(ctx, "/v1/liked-posts")
}

// FavoritePosts returns the posts the caller has favorited.
func (s *Session) FavoritePosts(ctx context.Context) ([]PostResponse, error) {
	return s.listPosts(ctx, "/v1/favorite-posts")
}

func (s *Session) listPosts(ctx context.Context, path string) ([]PostResponse, error) {
	var out PostList
	if err := s.doAuthJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// GetPost fetches a single post.
func (s *Session) GetPost(ctx context.Context, id int64) (*PostResponse, error) {
	var out PostResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, postPath(id, ""), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a post authored by the caller.
func (s *Session) CreatePost(ctx context.Context, req PostRequest) (*PostResponse, error) {
	var out PostResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/posts", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost edits one of the caller's posts.
func (s *Session) UpdatePost(ctx context.Context, id int64, req PostRequest) (*PostResponse, error) {
	var out PostResponse
	if err := s.doAuthJSON(ctx, http.MethodPut, postPath(id, ""), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes one of the caller's posts.
func (s *Session) DeletePost(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodDelete, postPath(id, ""), nil, nil, http.StatusNoContent)
}

func (s *Session) LikePost(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodPost, postPath(id, "/like"), nil, nil, http.StatusNoContent)
}

func (s *Session) UnlikePost(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodPost, postPath(id, "/unlike"), nil, nil, http.StatusNoContent)
}

func (s *Session) FavoritePost(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodPost, postPath(id, "/favorite"), nil, nil, http.StatusNoContent)
}

func (s *Session) UnfavoritePost(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodPost, postPath(id, "/unfavorite"), nil, nil, http.StatusNoContent)
}
