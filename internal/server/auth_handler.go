package server

import (
	"net/http"

	"github.com/jonathan/slideshow-studio/internal/server/middleware"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// handleRegister creates an account and returns a token
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	user, err := s.users.Register(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondWithToken(w, http.StatusCreated, user)
}

// handleLogin checks credentials and returns a token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	user, err := s.users.Login(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondWithToken(w, http.StatusOK, user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, status int, user *types.User) {
	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, status, types.LoginResponse{User: user, Token: token})
}

// handleMe returns the caller's account
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.users.Me(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleUpdatePassword changes the caller's password
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	if err := s.users.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
