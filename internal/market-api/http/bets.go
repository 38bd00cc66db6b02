package httpapi

import (
	"context"
	"net/http"

	"github.com/radieske/prediction-market-poc/internal/market-api/dto"
	"github.com/radieske/prediction-market-poc/internal/market-api/ws"
)

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}

	// ids de evento desconhecidos são aceitos; só evento já fechado é recusado
	e, err := s.storage.GetEvent(r.Context(), *req.EventID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if e != nil && e.Status.Closed() {
		writeError(w, http.StatusConflict, "Event is closed for betting")
		return
	}

	b, err := s.storage.CreateBet(r.Context(), req.ToNewBet())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	betsPlaced.Inc()
	s.afterWrite(r.Context(),
		func(ctx context.Context) error { return s.publ.PublishBetPlaced(ctx, *b) },
		ws.Update{Channel: ws.EventChannel(b.EventID), Type: ws.TypeBetPlaced, Payload: b},
	)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	b, err := s.storage.GetBet(r.Context(), id)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Bet not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listUserBets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	bets, err := s.storage.ListUserBets(r.Context(), userID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}
