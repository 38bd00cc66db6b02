package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-api/producer"
	"github.com/radieske/prediction-market-poc/internal/market-api/store"
	"github.com/radieske/prediction-market-poc/internal/market-api/ws"
)

// Publisher publica eventos de domínio no broker
type Publisher interface {
	PublishBetPlaced(ctx context.Context, b store.Bet) error
	PublishEventCreated(ctx context.Context, e store.Event) error
	PublishEventSettled(ctx context.Context, s store.Settlement) error
}

// Broadcaster entrega updates ao feed websocket (local ou via Redis)
type Broadcaster interface {
	Publish(ctx context.Context, u ws.Update) error
}

// StatsCache guarda o resultado de /api/stats entre escritas.
// Set recebe a versão devolvida pelo Get; Invalidate torna essa versão obsoleta.
type StatsCache interface {
	Get(ctx context.Context) (store.PlatformStats, int64, bool, error)
	Set(ctx context.Context, version int64, st store.PlatformStats) error
	Invalidate(ctx context.Context) error
}

// Options são as dependências opcionais da API; nil desliga cada uma
type Options struct {
	Publisher   Publisher
	Broadcaster Broadcaster
	StatsCache  StatsCache
	WSHandler   http.HandlerFunc
	CORSOrigins []string
	Now         func() time.Time
}

// Server expõe a API REST sobre um Storage
type Server struct {
	log     *zap.Logger
	storage store.Storage
	publ    Publisher
	feed    Broadcaster
	stats   StatsCache
	ws      http.HandlerFunc
	origins []string
	now     func() time.Time
}

// NewServer aplica defaults aos campos de opts não informados
func NewServer(log *zap.Logger, storage store.Storage, opts Options) *Server {
	s := &Server{
		log:     log,
		storage: storage,
		publ:    opts.Publisher,
		feed:    opts.Broadcaster,
		stats:   opts.StatsCache,
		ws:      opts.WSHandler,
		origins: opts.CORSOrigins,
		now:     opts.Now,
	}
	if s.publ == nil {
		s.publ = producer.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Router monta as rotas /api e /ws com os middlewares e o CORS
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.accessLog, s.recoverer)

	if s.ws != nil {
		r.Get("/ws", s.ws)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.createUser)
		r.Get("/users/{id}", s.getUser)
		r.Get("/users/{id}/follows", s.listFollows)
		r.Get("/users/wallet/{address}", s.getUserByWallet)

		r.Post("/events", s.createEvent)
		r.Get("/events", s.listEvents)
		r.Get("/events/featured", s.featuredEvents)
		r.Get("/events/{id}", s.getEvent)
		r.Get("/events/{id}/outcomes", s.listOutcomes)
		r.Post("/events/{id}/outcomes", s.addOutcome)
		r.Post("/events/{id}/settle", s.settleEvent)
		r.Post("/events/{id}/cancel", s.cancelEvent)

		r.Post("/bets", s.placeBet)
		r.Get("/bets/{id}", s.getBet)
		r.Get("/bets/user/{userId}", s.listUserBets)

		r.Get("/experts", s.listExperts)
		r.Get("/leaderboard", s.leaderboard)
		r.Post("/experts/{expertId}/follow", s.followExpert)

		r.Get("/stats", s.platformStats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{headerRequestID},
	}).Handler(r)
}

// afterWrite roda os efeitos colaterais de uma escrita bem sucedida.
// Falhas aqui são logadas e nunca mudam a resposta.
func (s *Server) afterWrite(ctx context.Context, publish func(context.Context) error, updates ...ws.Update) {
	if s.stats != nil {
		if err := s.stats.Invalidate(ctx); err != nil {
			s.log.Warn("stats cache invalidate failed", zap.Error(err))
		}
	}
	if publish != nil {
		if err := publish(ctx); err != nil {
			s.log.Warn("domain event publish failed", zap.Error(err))
		}
	}
	if s.feed == nil {
		return
	}
	for _, u := range updates {
		if err := s.feed.Publish(ctx, u); err != nil {
			s.log.Warn("feed publish failed", zap.Error(err), zap.String("channel", u.Channel))
		}
	}
}
