package stools

import "net/http"

// AdaptHandler chains middlewares around h. The first middleware listed is
// the outermost, so it sees the request first and the response last.
func AdaptHandler(h http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
