package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/radieske/prediction-market-poc/internal/market-api/dto"
	"github.com/radieske/prediction-market-poc/internal/market-api/store"
	"github.com/radieske/prediction-market-poc/internal/market-api/validation"
	"github.com/radieske/prediction-market-poc/internal/market-api/ws"
)

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	in, err := req.ToNewEvent()
	if err != nil {
		s.writeInvalid(w, r, validation.New("startDate", "rfc3339", "must be an ISO 8601 datetime"))
		return
	}

	e, err := s.storage.CreateEvent(r.Context(), in)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	eventsCreated.Inc()
	s.afterWrite(r.Context(),
		func(ctx context.Context) error { return s.publ.PublishEventCreated(ctx, *e) },
		ws.Update{Channel: ws.ChannelEvents, Type: ws.TypeEventCreated, Payload: e},
	)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.storage.ListEvents(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (s *Server) featuredEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.storage.FeaturedEvents(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) listOutcomes(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	outs, err := s.storage.ListOutcomes(r.Context(), e.ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outs)
}

// addOutcome acrescenta um outcome a um evento ainda aberto
func (s *Server) addOutcome(w http.ResponseWriter, r *http.Request) {
	e, ok := s.loadEvent(w, r)
	if !ok {
		return
	}
	var req dto.OutcomeRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	if e.Status.Closed() {
		writeError(w, http.StatusConflict, "Event is already closed")
		return
	}
	o, err := s.storage.CreateOutcome(r.Context(), e.ID, req.ToNewOutcome())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// loadEvent resolve {id}; em falha já escreveu a resposta
func (s *Server) loadEvent(w http.ResponseWriter, r *http.Request) (*store.Event, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return nil, false
	}
	e, err := s.storage.GetEvent(r.Context(), id)
	if err != nil {
		s.internal(w, r, err)
		return nil, false
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "Event not found")
		return nil, false
	}
	return e, true
}

func (s *Server) settleEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	var req dto.SettleRequest
	if err := decode(r, &req); err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	st, err := s.storage.SettleEvent(r.Context(), id, *req.OutcomeID)
	s.finishClose(w, r, st, err)
}

func (s *Server) cancelEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeInvalid(w, r, err)
		return
	}
	st, err := s.storage.CancelEvent(r.Context(), id)
	s.finishClose(w, r, st, err)
}

func (s *Server) finishClose(w http.ResponseWriter, r *http.Request, st *store.Settlement, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Event not found")
		return
	case errors.Is(err, store.ErrEventClosed):
		writeError(w, http.StatusConflict, "Event is already closed")
		return
	case errors.Is(err, store.ErrOutcomeMismatch):
		s.writeInvalid(w, r, validation.New("outcomeId", "invalid_outcome", "outcome does not belong to event"))
		return
	case err != nil:
		s.internal(w, r, err)
		return
	}

	eventsSettled.WithLabelValues(string(st.Status)).Inc()
	s.afterWrite(r.Context(),
		func(ctx context.Context) error { return s.publ.PublishEventSettled(ctx, *st) },
		ws.Update{Channel: ws.EventChannel(st.EventID), Type: ws.TypeEventSettled, Payload: st},
	)
	writeJSON(w, http.StatusOK, st)
}
