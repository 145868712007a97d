package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// CacheControl lets shared caches keep catalog reads for maxAge. Only 200
// responses to GET and HEAD are marked cacheable; errors are sent with
// no-store so a transient 404 or 500 is not pinned at the edge.
func CacheControl(maxAge time.Duration) func(http.Handler) http.Handler {
	public := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, value: public}, r)
		})
	}
}

type cacheWriter struct {
	http.ResponseWriter
	value   string
	written bool
}

func (cw *cacheWriter) WriteHeader(code int) {
	if !cw.written {
		cw.written = true
		if code == http.StatusOK {
			cw.Header().Set("Cache-Control", cw.value)
		} else {
			cw.Header().Set("Cache-Control", "no-store")
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cacheWriter) Write(b []byte) (int, error) {
	if !cw.written {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *cacheWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
