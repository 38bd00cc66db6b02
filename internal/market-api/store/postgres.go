package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres implementa Storage em banco Postgres
type Postgres struct {
	db  *sql.DB
	now Clock
}

// NewPostgres retorna uma instância do storage Postgres
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, now: time.Now} }

var _ Storage = (*Postgres)(nil)

// Migrate aplica os scripts de migrations/ em ordem. Os scripts são idempotentes.
func (p *Postgres) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		b, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
	}
	return nil
}

const userCols = `id, username, password, wallet_address, role, created_at`

// CreateUser insere o usuário e devolve a linha gravada
func (p *Postgres) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	u := &User{
		Username:      in.Username,
		Password:      in.Password,
		WalletAddress: in.WalletAddress,
		Role:          defaultRole(in.Role),
		CreatedAt:     p.now().UTC(),
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password, wallet_address, role, created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Username, u.Password, u.WalletAddress, u.Role, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser retorna nil quando o id não existe
func (p *Postgres) GetUser(ctx context.Context, id int64) (*User, error) {
	return p.queryUser(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
}

// GetUserByUsername busca por username exato
func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return p.queryUser(ctx, `SELECT `+userCols+` FROM users WHERE username=$1 ORDER BY id LIMIT 1`, username)
}

// GetUserByWalletAddress busca pela carteira vinculada
func (p *Postgres) GetUserByWalletAddress(ctx context.Context, address string) (*User, error) {
	return p.queryUser(ctx, `SELECT `+userCols+` FROM users WHERE wallet_address=$1 ORDER BY id LIMIT 1`, address)
}

func (p *Postgres) queryUser(ctx context.Context, q string, arg any) (*User, error) {
	var (
		u      User
		wallet sql.NullString
		role   string
	)
	err := p.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Password, &wallet, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if wallet.Valid {
		u.WalletAddress = &wallet.String
	}
	u.Role = Role(role)
	return &u, nil
}

const eventCols = `id, title, category, subcategory, description, start_date, end_date, created_at, status, liquidity_pool, creator_id`

// CreateEvent insere evento e outcomes na mesma transação
func (p *Postgres) CreateEvent(ctx context.Context, in NewEvent) (*Event, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e := &Event{
		Title:         in.Title,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		Description:   in.Description,
		StartDate:     in.StartDate.UTC(),
		EndDate:       defaultEndDate(in.StartDate, in.EndDate).UTC(),
		CreatedAt:     p.now().UTC(),
		Status:        defaultStatus(in.Status),
		LiquidityPool: in.LiquidityPool,
		CreatorID:     in.CreatorID,
		Outcomes:      []Outcome{},
	}
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO events (title, category, subcategory, description, start_date, end_date, created_at, status, liquidity_pool, creator_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		e.Title, e.Category, e.Subcategory, e.Description, e.StartDate, e.EndDate, e.CreatedAt, e.Status, e.LiquidityPool, e.CreatorID,
	).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	for _, oc := range in.Outcomes {
		o, err := insertOutcome(ctx, tx, e.ID, oc)
		if err != nil {
			return nil, err
		}
		e.Outcomes = append(e.Outcomes, o)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent retorna o evento com seus outcomes ou nil
func (p *Postgres) GetEvent(ctx context.Context, id int64) (*Event, error) {
	evs, err := p.queryEvents(ctx, `SELECT `+eventCols+` FROM events WHERE id=$1`, id)
	if err != nil || len(evs) == 0 {
		return nil, err
	}
	return &evs[0], nil
}

// ListEvents lista todos os eventos por id
func (p *Postgres) ListEvents(ctx context.Context) ([]Event, error) {
	return p.queryEvents(ctx, `SELECT `+eventCols+` FROM events ORDER BY id`)
}

// FeaturedEvents retorna os 3 eventos mais recentes
func (p *Postgres) FeaturedEvents(ctx context.Context) ([]Event, error) {
	return p.queryEvents(ctx, `SELECT `+eventCols+` FROM events ORDER BY created_at DESC, id DESC LIMIT $1`, FeaturedLimit)
}

// queryEvents lê os eventos e anexa os outcomes numa segunda consulta
func (p *Postgres) queryEvents(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	ids := []int64{}
	for rows.Next() {
		var (
			e      Event
			status string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &e.Subcategory, &e.Description,
			&e.StartDate, &e.EndDate, &e.CreatedAt, &status, &e.LiquidityPool, &e.CreatorID); err != nil {
			return nil, err
		}
		e.Status = EventStatus(status)
		e.Outcomes = []Outcome{}
		out = append(out, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	outcomes, err := p.queryOutcomes(ctx, `SELECT id, event_id, name, odds FROM outcomes WHERE event_id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byEvent := make(map[int64][]Outcome, len(ids))
	for _, o := range outcomes {
		byEvent[o.EventID] = append(byEvent[o.EventID], o)
	}
	for i := range out {
		if list, ok := byEvent[out[i].ID]; ok {
			out[i].Outcomes = list
		}
	}
	return out, nil
}

// CreateOutcome acrescenta um outcome ao evento
func (p *Postgres) CreateOutcome(ctx context.Context, eventID int64, in NewOutcome) (*Outcome, error) {
	o, err := insertOutcome(ctx, p.db, eventID, in)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOutcomes lista os outcomes do evento por id
func (p *Postgres) ListOutcomes(ctx context.Context, eventID int64) ([]Outcome, error) {
	return p.queryOutcomes(ctx, `SELECT id, event_id, name, odds FROM outcomes WHERE event_id=$1 ORDER BY id`, eventID)
}

func (p *Postgres) queryOutcomes(ctx context.Context, q string, args ...any) ([]Outcome, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()
	out := []Outcome{}
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.EventID, &o.Name, &o.Odds); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertOutcome(ctx context.Context, q queryRower, eventID int64, in NewOutcome) (Outcome, error) {
	o := Outcome{EventID: eventID, Name: in.Name, Odds: in.Odds}
	if err := q.QueryRowContext(ctx,
		`INSERT INTO outcomes (event_id, name, odds) VALUES ($1,$2,$3) RETURNING id`,
		eventID, in.Name, in.Odds,
	).Scan(&o.ID); err != nil {
		return Outcome{}, fmt.Errorf("insert outcome: %w", err)
	}
	return o, nil
}

const betCols = `id, user_id, event_id, outcome_id, amount, odds, date, status`

// CreateBet grava a aposta com status active
func (p *Postgres) CreateBet(ctx context.Context, in NewBet) (*Bet, error) {
	b := &Bet{
		UserID:    in.UserID,
		EventID:   in.EventID,
		OutcomeID: in.OutcomeID,
		Amount:    in.Amount,
		Odds:      in.Odds,
		Date:      p.now().UTC(),
		Status:    BetActive,
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bets (user_id, event_id, outcome_id, amount, odds, date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		b.UserID, b.EventID, b.OutcomeID, b.Amount, b.Odds, b.Date, b.Status,
	).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}
	return b, nil
}

// GetBet retorna nil quando a aposta não existe
func (p *Postgres) GetBet(ctx context.Context, id int64) (*Bet, error) {
	bets, err := queryBets(ctx, p.db, `SELECT `+betCols+` FROM bets WHERE id=$1`, id)
	if err != nil || len(bets) == 0 {
		return nil, err
	}
	return &bets[0], nil
}

// ListUserBets lista as apostas do usuário por id
func (p *Postgres) ListUserBets(ctx context.Context, userID int64) ([]Bet, error) {
	return queryBets(ctx, p.db, `SELECT `+betCols+` FROM bets WHERE user_id=$1 ORDER BY id`, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryBets(ctx context.Context, q querier, query string, args ...any) ([]Bet, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()
	out := []Bet{}
	for rows.Next() {
		var (
			b      Bet
			status string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.OutcomeID, &b.Amount, &b.Odds, &b.Date, &status); err != nil {
			return nil, err
		}
		b.Status = BetStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

const expertCols = `id, username, wallet_address, avatar, specialty, win_rate, total_predictions, created_at`

// CreateExpert insere um perfil de expert
func (p *Postgres) CreateExpert(ctx context.Context, in NewExpert) (*Expert, error) {
	x := &Expert{
		Username:         in.Username,
		WalletAddress:    in.WalletAddress,
		Avatar:           in.Avatar,
		Specialty:        in.Specialty,
		WinRate:          in.WinRate,
		TotalPredictions: in.TotalPredictions,
		CreatedAt:        p.now().UTC(),
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO experts (username, wallet_address, avatar, specialty, win_rate, total_predictions, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		x.Username, x.WalletAddress, x.Avatar, x.Specialty, x.WinRate, x.TotalPredictions, x.CreatedAt,
	).Scan(&x.ID)
	if err != nil {
		return nil, fmt.Errorf("insert expert: %w", err)
	}
	return x, nil
}

// GetExpert retorna nil quando o expert não existe
func (p *Postgres) GetExpert(ctx context.Context, id int64) (*Expert, error) {
	xs, err := p.queryExperts(ctx, `SELECT `+expertCols+` FROM experts WHERE id=$1`, id)
	if err != nil || len(xs) == 0 {
		return nil, err
	}
	return &xs[0], nil
}

// ListExperts lista os experts por id
func (p *Postgres) ListExperts(ctx context.Context) ([]Expert, error) {
	return p.queryExperts(ctx, `SELECT `+expertCols+` FROM experts ORDER BY id`)
}

// Leaderboard ordena por win_rate desc (id asc no empate)
func (p *Postgres) Leaderboard(ctx context.Context) ([]Expert, error) {
	return p.queryExperts(ctx, `SELECT `+expertCols+` FROM experts ORDER BY win_rate DESC, id`)
}

// FollowedExperts lista os experts seguidos pelo usuário
func (p *Postgres) FollowedExperts(ctx context.Context, userID int64) ([]Expert, error) {
	return p.queryExperts(ctx, `
		SELECT x.id, x.username, x.wallet_address, x.avatar, x.specialty, x.win_rate, x.total_predictions, x.created_at
		FROM experts x JOIN follows f ON f.expert_id = x.id
		WHERE f.user_id=$1 ORDER BY x.id`, userID)
}

func (p *Postgres) queryExperts(ctx context.Context, q string, args ...any) ([]Expert, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query experts: %w", err)
	}
	defer rows.Close()
	out := []Expert{}
	for rows.Next() {
		var x Expert
		if err := rows.Scan(&x.ID, &x.Username, &x.WalletAddress, &x.Avatar, &x.Specialty,
			&x.WinRate, &x.TotalPredictions, &x.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// FollowExpert usa a PK (user_id, expert_id); repetir o follow não faz nada
func (p *Postgres) FollowExpert(ctx context.Context, userID, expertID int64) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO follows (user_id, expert_id, created_at) VALUES ($1,$2,$3)
		ON CONFLICT (user_id, expert_id) DO NOTHING`, userID, expertID, p.now().UTC())
	return err
}

// UnfollowExpert remove o par; sem follow não é erro
func (p *Postgres) UnfollowExpert(ctx context.Context, userID, expertID int64) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM follows WHERE user_id=$1 AND expert_id=$2`, userID, expertID)
	return err
}

// PlatformStats agrega no banco; o volume vem como texto e é somado sem perda via decimal
func (p *Postgres) PlatformStats(ctx context.Context, now time.Time) (PlatformStats, error) {
	var (
		st     PlatformStats
		volume string
	)
	if err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)::text, COUNT(DISTINCT user_id) FROM bets`,
	).Scan(&st.TotalBets, &volume, &st.ActiveUsers); err != nil {
		return PlatformStats{}, fmt.Errorf("bet stats: %w", err)
	}
	d, err := decimal.NewFromString(volume)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("parse volume %q: %w", volume, err)
	}
	st.TotalVolume = d.InexactFloat64()

	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE start_date <= $1 AND end_date >= $1`, now,
	).Scan(&st.ActiveEvents); err != nil {
		return PlatformStats{}, fmt.Errorf("event stats: %w", err)
	}
	return st, nil
}

// SettleEvent fecha o evento com outcomeID vencedor
func (p *Postgres) SettleEvent(ctx context.Context, eventID, outcomeID int64) (*Settlement, error) {
	return p.closeEvent(ctx, eventID, &outcomeID)
}

// CancelEvent fecha o evento devolvendo todas as apostas
func (p *Postgres) CancelEvent(ctx context.Context, eventID int64) (*Settlement, error) {
	return p.closeEvent(ctx, eventID, nil)
}

// closeEvent trava a linha do evento, resolve as apostas e grava tudo numa transação
func (p *Postgres) closeEvent(ctx context.Context, eventID int64, winning *int64) (*Settlement, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock event: %w", err)
	}
	if EventStatus(status).Closed() {
		return nil, ErrEventClosed
	}

	if winning != nil {
		var owner int64
		err = tx.QueryRowContext(ctx, `SELECT event_id FROM outcomes WHERE id=$1`, *winning).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != eventID) {
			return nil, ErrOutcomeMismatch
		}
		if err != nil {
			return nil, fmt.Errorf("load outcome: %w", err)
		}
	}

	bets, err := queryBets(ctx, tx, `SELECT `+betCols+` FROM bets WHERE event_id=$1 AND status='active' ORDER BY id FOR UPDATE`, eventID)
	if err != nil {
		return nil, err
	}
	st, next := settleBets(eventID, bets, winning)

	byStatus := map[BetStatus][]int64{}
	for id, s := range next {
		byStatus[s] = append(byStatus[s], id)
	}
	for _, s := range []BetStatus{BetWon, BetLost, BetRefunded} {
		ids := byStatus[s]
		if len(ids) == 0 {
			continue
		}
		if _, err = tx.ExecContext(ctx, `UPDATE bets SET status=$1 WHERE id = ANY($2)`, s, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("update bets: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE events SET status=$1 WHERE id=$2`, st.Status, eventID); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &st, nil
}

// ActivateDueEvents passa para active os upcoming que já começaram
func (p *Postgres) ActivateDueEvents(ctx context.Context, now time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE events SET status='active' WHERE status='upcoming' AND start_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("activate events: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping verifica a conexão com o banco
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
