//go:build e2e

package blog_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	client := setupBlogContainer(t, nil)
	ctx := t.Context()

	alice, aliceSession := registerAndLogin(t, client, "alice", "wonderland1")
	_, bobSession := registerAndLogin(t, client, "bob", "builder123")

	post, err := aliceSession.CreatePost(ctx, blogsdk.PostRequest{Title: "Hello", Content: "First post"})
	require.NoError(t, err)
	require.Equal(t, alice.ID, post.AuthorID)
	require.Zero(t, post.Likes)

	got, err := bobSession.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "First post", got.Content)

	// Only the author may edit or delete.
	_, err = bobSession.UpdatePost(ctx, post.ID, blogsdk.PostRequest{Title: "Mine now", Content: "x"})
	assertAPIError(t, err, http.StatusNotFound)
	err = bobSession.DeletePost(ctx, post.ID)
	assertAPIError(t, err, http.StatusNotFound)

	updated, err := aliceSession.UpdatePost(ctx, post.ID, blogsdk.PostRequest{Title: "Hello again", Content: "Edited"})
	require.NoError(t, err)
	require.Equal(t, "Hello again", updated.Title)
	require.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.NoError(t, aliceSession.DeletePost(ctx, post.ID))
	_, err = aliceSession.GetPost(ctx, post.ID)
	assertAPIError(t, err, http.StatusNotFound)
}

func TestLikesAndFavorites(t *testing.T) {
	client := setupBlogContainer(t, nil)
	ctx := t.Context()

	_, aliceSession := registerAndLogin(t, client, "alice", "wonderland1")
	_, bobSession := registerAndLogin(t, client, "bob", "builder123")

	post, err := aliceSession.CreatePost(ctx, blogsdk.PostRequest{Title: "Likeable", Content: "Please like"})
	require.NoError(t, err)

	err = aliceSession.LikePost(ctx, post.ID)
	assertAPIError(t, err, http.StatusBadRequest, "authors cannot like their own post")

	require.NoError(t, bobSession.LikePost(ctx, post.ID))
	err = bobSession.LikePost(ctx, post.ID)
	assertAPIError(t, err, http.StatusBadRequest, "second like is rejected")

	got, err := bobSession.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Likes)

	liked, err := bobSession.LikedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	require.Equal(t, post.ID, liked[0].ID)

	require.NoError(t, bobSession.UnlikePost(ctx, post.ID))
	err = bobSession.UnlikePost(ctx, post.ID)
	assertAPIError(t, err, http.StatusBadRequest)

	// Authors may favorite their own posts.
	require.NoError(t, aliceSession.FavoritePost(ctx, post.ID))
	require.NoError(t, bobSession.FavoritePost(ctx, post.ID))
	err = bobSession.FavoritePost(ctx, post.ID)
	assertAPIError(t, err, http.StatusBadRequest)

	favorites, err := aliceSession.FavoritePosts(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, 2, favorites[0].Favorites)

	require.NoError(t, aliceSession.UnfavoritePost(ctx, post.ID))
	favorites, err = aliceSession.FavoritePosts(ctx)
	require.NoError(t, err)
	require.Empty(t, favorites)
}

func TestPostsRequireAuthForWrites(t *testing.T) {
	client := setupBlogContainer(t, nil)

	anonymous := client.NewSession("", "", 3600)
	_, err := anonymous.CreatePost(t.Context(), blogsdk.PostRequest{Title: "t", Content: "c"})
	assertAPIError(t, err, http.StatusUnauthorized)
}
