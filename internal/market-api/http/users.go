package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/prediction-market-poc/internal/market-api/dto"
)

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}

	// unicidade é checada aqui; o storage não valida
	existing, err := s.storage.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	if wallet := req.Wallet(); wallet != nil {
		existing, err = s.storage.GetUserByWalletAddress(r.Context(), *wallet)
		if err != nil {
			s.internal(w, r, err)
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Wallet address already registered")
			return
		}
	}

	u, err := s.storage.CreateUser(r.Context(), req.ToNewUser())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	u, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) getUserByWallet(w http.ResponseWriter, r *http.Request) {
	u, err := s.storage.GetUserByWalletAddress(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// listFollows lista os experts que o usuário segue
func (s *Server) listFollows(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	xs, err := s.storage.FollowedExperts(r.Context(), id)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}
