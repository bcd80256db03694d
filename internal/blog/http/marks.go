package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/blog/internal/blog/domain"
	"github.com/aussiebroadwan/blog/pkg/httpx"
)

type markFunc func(ctx context.Context, u domain.User, postID int64) error

type listFunc func(ctx context.Context, u domain.User) ([]domain.Post, error)

// HandleLike handles POST /v1/posts/{id}/like
//
//	@Summary		Like a post
//	@Description	Authors cannot like their own posts.
//	@Tags			Likes
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Post ID"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"own post or already liked"
//	@Failure		404	{object}	blogsdk.ErrorResponse	"Post not found"
//	@Router			/v1/posts/{id}/like [post].
func (h *PostsHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Posts.Like)
}

// HandleUnlike handles POST /v1/posts/{id}/unlike
//
//	@Summary		Remove a like
//	@Tags			Likes
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Post ID"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"own post, no likes, or not liked by caller"
//	@Failure		404	{object}	blogsdk.ErrorResponse	"Post not found"
//	@Router			/v1/posts/{id}/unlike [post].
func (h *PostsHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Posts.Unlike)
}

// HandleLiked handles GET /v1/liked-posts
//
//	@Summary		Posts the caller liked
//	@Tags			Likes
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	blogsdk.PostList	"posts, most recently liked first"
//	@Router			/v1/liked-posts [get].
func (h *PostsHandler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Posts.LikedPosts)
}

// HandleFavorite handles POST /v1/posts/{id}/favorite
//
//	@Summary		Favorite a post
//	@Tags			Favorites
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Post ID"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"already favorited"
//	@Failure		404	{object}	blogsdk.ErrorResponse	"Post not found"
//	@Router			/v1/posts/{id}/favorite [post].
func (h *PostsHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Posts.Favorite)
}

// HandleUnfavorite handles POST /v1/posts/{id}/unfavorite
//
//	@Summary		Remove a favorite
//	@Tags			Favorites
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Post ID"
//	@Success		204
//	@Failure		400	{object}	blogsdk.ErrorResponse	"no favorites, or not favorited by caller"
//	@Failure		404	{object}	blogsdk.ErrorResponse	"Post not found"
//	@Router			/v1/posts/{id}/unfavorite [post].
func (h *PostsHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Posts.Unfavorite)
}

// HandleFavorites handles GET /v1/favorite-posts
//
//	@Summary		Posts the caller favorited
//	@Tags			Favorites
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	blogsdk.PostList	"posts, most recently favorited first"
//	@Router			/v1/favorite-posts [get].
func (h *PostsHandler) HandleFavorites(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Posts.FavoritePosts)
}

func (h *PostsHandler) mark(w http.ResponseWriter, r *http.Request, fn markFunc) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), u, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostsHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	posts, err := fn(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPostList(posts))
}
