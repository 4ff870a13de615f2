package auth_test

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func routerFor(mount func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	mount(r)
	return r
}
