package httpapi

import (
	"net/http"

	"github.com/radieske/prediction-market-poc/internal/market-api/dto"
)

func (s *Server) listExperts(w http.ResponseWriter, r *http.Request) {
	xs, err := s.storage.ListExperts(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	xs, err := s.storage.Leaderboard(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, xs)
}

// followExpert segue quando "follow" é true ou está ausente no corpo;
// só "follow": false deixa de seguir.
func (s *Server) followExpert(w http.ResponseWriter, r *http.Request) {
	expertID, err := pathID(r, "expertId")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	var req dto.FollowRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}

	x, err := s.storage.GetExpert(r.Context(), expertID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if x == nil {
		writeError(w, http.StatusNotFound, "Expert not found")
		return
	}

	following := req.Following()
	if following {
		err = s.storage.FollowExpert(r.Context(), *req.UserID, expertID)
	} else {
		err = s.storage.UnfollowExpert(r.Context(), *req.UserID, expertID)
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FollowResponse{Success: true, Following: following})
}
