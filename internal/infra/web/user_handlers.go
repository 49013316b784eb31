package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"saas-starter/internal/domain/model"
	"saas-starter/internal/usecase"
)

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	user, err := s.userUC.Get(r.Context(), sess.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, toUserDTO(user))
}

type updateUserRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.userUC.Update(r.Context(), sess.UserID, chi.URLParam(r, "id"), usecase.UpdateUserParams{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, toUserDTO(user))
}
