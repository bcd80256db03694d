/*
Package blogsdk is the Go client for the blog API.

Use a Client for public endpoints and to log in:

	client := blogsdk.NewClient("https://blog.example.com")

	user, err := client.Register(ctx, blogsdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
		FullName: "Alice",
	})

	session, err := client.Login(ctx, "alice", "correct horse", "")

A Session carries the bearer token and transparently redeems its refresh
token when the access token is about to expire:

	me, err := session.CurrentUser(ctx)
	post, err := session.CreatePost(ctx, blogsdk.PostRequest{Title: "Hello", Content: "..."})

Accounts with two-factor authentication enabled must pass the current TOTP
code to Login; without it the server responds with ErrorCodeMFARequired:

	var apiErr *blogsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == blogsdk.ErrorCodeMFARequired {
		session, err = client.Login(ctx, "alice", "correct horse", code)
	}

Non-2xx responses are returned as *APIError carrying the HTTP status and the
server's error code.
*/
package blogsdk
