package handler

// Helpers shared by every handler. The envelope itself and the mapping from
// domain errors to status codes live in internal/response; this file only
// adds the request-side pieces handlers repeat: reading the page parameter,
// answering with a page of items and fetching the signed-in user.

import (
	"net/http"

	"github.com/sakif/communities/internal/auth"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/pagination"
	"github.com/sakif/communities/internal/response"
)

// pageParam reads the zero-based ?page= query parameter.
func pageParam(r *http.Request) int {
	return pagination.Parse(r.URL.Query().Get("page"))
}

// writePage answers 200 with the items as data and the page meta.
func writePage[T any](w http.ResponseWriter, r *http.Request, res *pagination.Result[T]) {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	response.JSON(w, r, http.StatusOK, items, res.Meta)
}

// currentUser returns the user RequireAuth attached to the request. When it
// is absent the 401 envelope has already been written and ok is false.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.NotSignedIn(w, r)
		return nil, false
	}
	return user, true
}
