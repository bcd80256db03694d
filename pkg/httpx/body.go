package httpx

import "net/http"

// MaxFormBytes caps urlencoded form bodies on credential endpoints.
const MaxFormBytes = 1 << 16

// LimitBody caps the request body at n bytes. Install it ahead of anything
// that reads the body, including key extractors that parse the form.
func LimitBody(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
