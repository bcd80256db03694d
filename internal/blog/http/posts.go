package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/blog/internal/blog/service"
	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/httpx"
)

type PostsHandler struct {
	Posts *service.PostService
}

// HandleList handles GET /v1/posts
//
//	@Summary		List posts
//	@Description	All posts, newest first. Public.
//	@Tags			Posts
//	@Produce		json
//	@Success		200	{object}	blogsdk.PostList	"posts"
//	@Router			/v1/posts [get].
func (h *PostsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPostList(posts))
}

// HandleGet handles GET /v1/posts/{id}
//
//	@Summary		Get a post
//	@Tags			Posts
//	@Produce		json
//	@Param			id	path		int						true	"Post ID"
//	@Success		200	{object}	blogsdk.PostResponse	"post"
//	@Failure		404	{object}	blogsdk.ErrorResponse	"Post not found"
//	@Router			/v1/posts/{id} [get].
func (h *PostsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	p, err := h.Posts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPost(p))
}

// HandleCreate handles POST /v1/posts
//
//	@Summary		Create a post
//	@Tags			Posts
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		blogsdk.PostRequest		true	"title, content"
//	@Success		201		{object}	blogsdk.PostResponse	"created post"
//	@Failure		400		{object}	blogsdk.ErrorResponse	"missing title or content"
//	@Failure		401		{object}	blogsdk.ErrorResponse	"invalid or missing access token"
//	@Router			/v1/posts [post].
func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	in, ok := decodePost(w, r)
	if !ok {
		return
	}
	p, err := h.Posts.Create(r.Context(), u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toPost(p))
}

// HandleUpdate handles PUT /v1/posts/{id}
//
//	@Summary		Update a post
//	@Description	Only the author may update a post.
//	@Tags			Posts
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Post ID"
//	@Param			request	body		blogsdk.PostRequest		true	"title, content"
//	@Success		200		{object}	blogsdk.PostResponse	"updated post"
//	@Failure		404		{object}	blogsdk.ErrorResponse	"not found or not the author"
//	@Router			/v1/posts/{id} [put].
func (h *PostsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	in, ok := decodePost(w, r)
	if !ok {
		return
	}
	p, err := h.Posts.Update(r.Context(), u, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPost(p))
}

// HandleDelete handles DELETE /v1/posts/{id}
//
//	@Summary		Delete a post
//	@Description	Only the author may delete a post. Its likes and favorites go with it.
//	@Tags			Posts
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Post ID"
//	@Success		204
//	@Failure		404	{object}	blogsdk.ErrorResponse	"not found or not the author"
//	@Router			/v1/posts/{id} [delete].
func (h *PostsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	if _, err := h.Posts.Delete(r.Context(), u, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		blogsdk.ErrInvalidRequest.WithDescription("post id must be a positive integer").WriteError(w)
		return 0, false
	}
	return id, true
}

func decodePost(w http.ResponseWriter, r *http.Request) (service.PostInput, bool) {
	var req blogsdk.PostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		blogsdk.ErrInvalidRequest.WithDescription("request body must be a JSON post").WriteError(w)
		return service.PostInput{}, false
	}
	return service.PostInput{Title: req.Title, Content: req.Content}, true
}
