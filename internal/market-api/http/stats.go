package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// platformStats serve do cache quando houver; erro de cache cai no storage
func (s *Server) platformStats(w http.ResponseWriter, r *http.Request) {
	var version int64
	cached := s.stats != nil
	if cached {
		st, ver, ok, err := s.stats.Get(r.Context())
		if err != nil {
			s.log.Warn("stats cache read failed", zap.Error(err))
			cached = false
		}
		version = ver
		if ok {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}

	st, err := s.storage.PlatformStats(r.Context(), s.now().UTC())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if cached {
		if err := s.stats.Set(r.Context(), version, st); err != nil {
			s.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, st)
}
