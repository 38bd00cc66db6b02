package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-api/store"
)

var sweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "market_api_status_sweeps_total",
	Help: "Execuções do sweeper de status de eventos, por resultado.",
}, []string{"result"})

// RegisterMetrics registra os coletores do sweeper
func RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(sweepsTotal)
}

// StatusSweeper move eventos upcoming para active quando o início já passou
type StatusSweeper struct {
	log     *zap.Logger
	storage store.Storage
	cron    *cron.Cron
	now     func() time.Time

	// OnActivated roda quando pelo menos um evento mudou de status
	OnActivated func(ctx context.Context, n int)
}

func NewStatusSweeper(log *zap.Logger, storage store.Storage) *StatusSweeper {
	return &StatusSweeper{
		log:     log,
		storage: storage,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:     time.Now,
	}
}

// Sweep executa uma passada e retorna quantos eventos foram ativados
func (s *StatusSweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.storage.ActivateDueEvents(ctx, s.now().UTC())
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	sweepsTotal.WithLabelValues("ok").Inc()
	if n > 0 {
		s.log.Info("events activated", zap.Int("count", n))
		if s.OnActivated != nil {
			s.OnActivated(ctx, n)
		}
	}
	return n, nil
}

// Start agenda Sweep em spec (sintaxe cron ou "@every 1m") usando ctx como base
func (s *StatusSweeper) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("status sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("status sweeper started", zap.String("schedule", spec))
	return nil
}

// Stop espera o job em andamento terminar
func (s *StatusSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("status sweeper stopped")
}
