package handler

import (
	"net/http"

	"github.com/ocralab/ocra/internal/api/middleware"
	"github.com/ocralab/ocra/internal/api/response"
)

type Me struct{}

func NewMe() *Me {
	return &Me{}
}

// Get returns the current authenticated user's profile.
func (h *Me) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing session")
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}
