// Package storage persists teams, players, and the league configuration in
// Postgres. The auction store itself is deliberately not stored here: live
// auction state is ephemeral and survives restarts through its own state
// file, while storage holds the durable records a sale mutates.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/models"
)

// Repository implements team, player, and config data access on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository on an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	short_name TEXT NOT NULL DEFAULT '',
	primary_color TEXT,
	secondary_color TEXT,
	logo TEXT,
	initial_purse BIGINT NOT NULL,
	remaining_purse BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	batting_style TEXT NOT NULL DEFAULT '',
	bowling_style TEXT NOT NULL DEFAULT '',
	tier TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'available',
	sold_price BIGINT,
	sold_to_team_id UUID REFERENCES teams(id),
	sold_at TIMESTAMPTZ,
	is_retained BOOLEAN NOT NULL DEFAULT FALSE,
	retained_by_team_id UUID REFERENCES teams(id),
	retained_price BIGINT,
	external_id TEXT,
	photo TEXT,
	notes TEXT,
	stats JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS players_status_idx ON players(status);
CREATE INDEX IF NOT EXISTS players_sold_to_idx ON players(sold_to_team_id);
CREATE INDEX IF NOT EXISTS players_retained_by_idx ON players(retained_by_team_id);

CREATE TABLE IF NOT EXISTS auction_config (
	id TEXT PRIMARY KEY,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- Teams -----------------------------------------------------------------

const teamColumns = `id, name, short_name, primary_color, secondary_color, logo,
	initial_purse, remaining_purse, created_at, updated_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.Name, &t.ShortName, &t.PrimaryColor, &t.SecondaryColor,
		&t.Logo, &t.InitialPurse, &t.RemainingPurse, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	return &t, nil
}

// CreateTeam inserts a team with its purse fully intact.
func (r *Repository) CreateTeam(ctx context.Context, team models.Team) (*models.Team, error) {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	if team.RemainingPurse == 0 {
		team.RemainingPurse = team.InitialPurse
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO teams (id, name, short_name, primary_color, secondary_color, logo, initial_purse, remaining_purse)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+teamColumns,
		team.ID, team.Name, team.ShortName, team.PrimaryColor, team.SecondaryColor,
		team.Logo, team.InitialPurse, team.RemainingPurse)
	created, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return created, nil
}

// GetTeam fetches one team with its roster attached.
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(r.pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachRosters(ctx, []*models.Team{team}); err != nil {
		return nil, err
	}
	return team, nil
}

// ListTeams fetches all teams with rosters attached.
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	if err := r.attachRosters(ctx, teams); err != nil {
		return nil, err
	}
	out := make([]models.Team, len(teams))
	for i, t := range teams {
		out[i] = *t
	}
	return out, nil
}

// attachRosters fills Players and RetainedPlayers from the players table.
func (r *Repository) attachRosters(ctx context.Context, teams []*models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(sold_to_team_id, retained_by_team_id), is_retained
		FROM players
		WHERE sold_to_team_id IS NOT NULL OR retained_by_team_id IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("load rosters: %w", err)
	}
	defer rows.Close()

	byTeam := make(map[uuid.UUID]*models.Team, len(teams))
	for _, t := range teams {
		byTeam[t.ID] = t
	}
	for rows.Next() {
		var playerID, teamID uuid.UUID
		var retained bool
		if err := rows.Scan(&playerID, &teamID, &retained); err != nil {
			return fmt.Errorf("scan roster row: %w", err)
		}
		t, ok := byTeam[teamID]
		if !ok {
			continue
		}
		t.Players = append(t.Players, playerID)
		if retained {
			t.RetainedPlayers = append(t.RetainedPlayers, playerID)
		}
	}
	return rows.Err()
}

// UpdateTeam rewrites a team's editable fields.
func (r *Repository) UpdateTeam(ctx context.Context, team models.Team) (*models.Team, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE teams
		SET name = $2, short_name = $3, primary_color = $4, secondary_color = $5,
			logo = $6, initial_purse = $7, remaining_purse = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+teamColumns,
		team.ID, team.Name, team.ShortName, team.PrimaryColor, team.SecondaryColor,
		team.Logo, team.InitialPurse, team.RemainingPurse)
	return scanTeam(row)
}

// DeleteTeam removes a team and releases its players back to the pool.
func (r *Repository) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE players
			SET status = 'available', sold_to_team_id = NULL, sold_price = NULL, sold_at = NULL,
				is_retained = FALSE, retained_by_team_id = NULL, retained_price = NULL,
				updated_at = now()
			WHERE sold_to_team_id = $1 OR retained_by_team_id = $1`, id)
		if err != nil {
			return fmt.Errorf("release players: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrTeamNotFound
		}
		return nil
	})
}

// --- Players ---------------------------------------------------------------

const playerColumns = `id, name, role, batting_style, bowling_style, tier, status,
	sold_price, sold_to_team_id, sold_at, is_retained, retained_by_team_id,
	retained_price, external_id, photo, notes, stats, created_at, updated_at`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	var stats []byte
	err := row.Scan(&p.ID, &p.Name, &p.Role, &p.BattingStyle, &p.BowlingStyle, &p.Tier,
		&p.Status, &p.SoldPrice, &p.SoldToTeamID, &p.SoldAt, &p.IsRetained,
		&p.RetainedByTeamID, &p.RetainedPrice, &p.ExternalID, &p.Photo, &p.Notes,
		&stats, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &p.Stats); err != nil {
			return nil, fmt.Errorf("decode player stats: %w", err)
		}
	}
	return &p, nil
}

// CreatePlayer inserts a player into the pool as available.
func (r *Repository) CreatePlayer(ctx context.Context, player models.Player) (*models.Player, error) {
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	if player.Status == "" {
		player.Status = models.PlayerAvailable
	}
	stats, err := json.Marshal(player.Stats)
	if err != nil {
		return nil, fmt.Errorf("encode player stats: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO players (id, name, role, batting_style, bowling_style, tier, status, external_id, photo, notes, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+playerColumns,
		player.ID, player.Name, player.Role, player.BattingStyle, player.BowlingStyle,
		player.Tier, player.Status, player.ExternalID, player.Photo, player.Notes, stats)
	created, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return created, nil
}

// BulkCreatePlayers inserts a batch of players in one round trip.
func (r *Repository) BulkCreatePlayers(ctx context.Context, players []models.Player) (int, error) {
	batch := &pgx.Batch{}
	for i := range players {
		p := &players[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		stats, err := json.Marshal(p.Stats)
		if err != nil {
			return 0, fmt.Errorf("encode stats for %s: %w", p.Name, err)
		}
		batch.Queue(`
			INSERT INTO players (id, name, role, batting_style, bowling_style, tier, status, external_id, photo, notes, stats)
			VALUES ($1, $2, $3, $4, $5, $6, 'available', $7, $8, $9, $10)`,
			p.ID, p.Name, p.Role, p.BattingStyle, p.BowlingStyle, p.Tier,
			p.ExternalID, p.Photo, p.Notes, stats)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range players {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("bulk insert player %s: %w", players[i].Name, err)
		}
	}
	log.Info().Int("count", len(players)).Msg("bulk created players")
	return len(players), nil
}

// GetPlayer fetches one player.
func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return scanPlayer(r.pool.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
}

// ListPlayers fetches the whole pool.
func (r *Repository) ListPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// UpdatePlayer rewrites a player's editable fields. Sale and retention fields
// are managed by their own operations.
func (r *Repository) UpdatePlayer(ctx context.Context, player models.Player) (*models.Player, error) {
	stats, err := json.Marshal(player.Stats)
	if err != nil {
		return nil, fmt.Errorf("encode player stats: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE players
		SET name = $2, role = $3, batting_style = $4, bowling_style = $5, tier = $6,
			external_id = $7, photo = $8, notes = $9, stats = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+playerColumns,
		player.ID, player.Name, player.Role, player.BattingStyle, player.BowlingStyle,
		player.Tier, player.ExternalID, player.Photo, player.Notes, stats)
	return scanPlayer(row)
}

// DeletePlayer removes a player, refunding the buying team if it was sold.
func (r *Repository) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.SoldToTeamID != nil {
			refund := int64(0)
			if p.SoldPrice != nil {
				refund = *p.SoldPrice
			} else if p.RetainedPrice != nil {
				refund = *p.RetainedPrice
			}
			if err := creditTeam(ctx, tx, *p.SoldToTeamID, refund); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
		return err
	})
}

// --- Sale outcome ----------------------------------------------------------

// MarkSold records a sale: player goes to the team, the hammer price leaves
// the team's purse. Fails without side effects when the purse cannot cover
// the price.
func (r *Repository) MarkSold(ctx context.Context, playerID, teamID uuid.UUID, price int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var remaining int64
		err := tx.QueryRow(ctx,
			`SELECT remaining_purse FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&remaining)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("lock team purse: %w", err)
		}
		if remaining < price {
			return fmt.Errorf("%w: purse %d, price %d", ErrInsufficientFunds, remaining, price)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE players
			SET status = 'sold', sold_to_team_id = $2, sold_price = $3, sold_at = now(), updated_at = now()
			WHERE id = $1`, playerID, teamID, price)
		if err != nil {
			return fmt.Errorf("mark player sold: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPlayerNotFound
		}

		_, err = tx.Exec(ctx, `
			UPDATE teams SET remaining_purse = remaining_purse - $2, updated_at = now()
			WHERE id = $1`, teamID, price)
		if err != nil {
			return fmt.Errorf("debit team purse: %w", err)
		}

		log.Info().
			Str("player_id", playerID.String()).
			Str("team_id", teamID.String()).
			Int64("price", price).
			Msg("player sold")
		return nil
	})
}

// MarkUnsold records that the player found no buyer this round.
func (r *Repository) MarkUnsold(ctx context.Context, playerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE players SET status = 'unsold', updated_at = now() WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("mark player unsold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// ResetPlayerToAvailable undoes a sale or unsold marking, refunding the
// buying team. Retained players are immutable here.
func (r *Repository) ResetPlayerToAvailable(ctx context.Context, playerID uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID))
		if err != nil {
			return err
		}
		if p.IsRetained {
			return ErrRetainedPlayerImmutable
		}
		if p.SoldToTeamID != nil && p.SoldPrice != nil {
			if err := creditTeam(ctx, tx, *p.SoldToTeamID, *p.SoldPrice); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `
			UPDATE players
			SET status = 'available', sold_to_team_id = NULL, sold_price = NULL, sold_at = NULL, updated_at = now()
			WHERE id = $1`, playerID)
		return err
	})
}

// ResetAuctionRound returns every non-retained player to the pool and
// restores each team's purse to its initial value minus retention spend.
// Retentions survive a reset.
func (r *Repository) ResetAuctionRound(ctx context.Context) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE players
			SET status = 'available', sold_to_team_id = NULL, sold_price = NULL, sold_at = NULL, updated_at = now()
			WHERE NOT is_retained`)
		if err != nil {
			return fmt.Errorf("reset players: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE teams t
			SET remaining_purse = t.initial_purse - COALESCE((
					SELECT SUM(p.retained_price) FROM players p
					WHERE p.retained_by_team_id = t.id AND p.is_retained
				), 0),
				updated_at = now()`)
		if err != nil {
			return fmt.Errorf("reset team purses: %w", err)
		}
		log.Info().Msg("auction round reset")
		return nil
	})
}

// --- Retentions ------------------------------------------------------------

// RetainPlayer pins a player to a team before the auction at a fixed price.
func (r *Repository) RetainPlayer(ctx context.Context, teamID, playerID uuid.UUID, price int64, maxRetentions int) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID))
		if err != nil {
			return err
		}
		if p.IsRetained {
			return ErrAlreadyRetained
		}

		var remaining int64
		err = tx.QueryRow(ctx,
			`SELECT remaining_purse FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&remaining)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("lock team purse: %w", err)
		}
		if remaining < price {
			return fmt.Errorf("%w: purse %d, retention price %d", ErrInsufficientFunds, remaining, price)
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM players WHERE retained_by_team_id = $1 AND is_retained`, teamID).Scan(&count)
		if err != nil {
			return fmt.Errorf("count retentions: %w", err)
		}
		if count >= maxRetentions {
			return fmt.Errorf("%w: %d allowed", ErrMaxRetentions, maxRetentions)
		}

		_, err = tx.Exec(ctx, `
			UPDATE players
			SET status = 'retained', is_retained = TRUE, retained_by_team_id = $2, retained_price = $3,
				sold_to_team_id = $2, sold_price = $3, sold_at = now(), updated_at = now()
			WHERE id = $1`, playerID, teamID, price)
		if err != nil {
			return fmt.Errorf("retain player: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE teams SET remaining_purse = remaining_purse - $2, updated_at = now()
			WHERE id = $1`, teamID, price)
		return err
	})
}

// ReleaseRetainedPlayer undoes a retention, restoring the purse capped at
// the initial amount.
func (r *Repository) ReleaseRetainedPlayer(ctx context.Context, teamID, playerID uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPlayer(tx.QueryRow(ctx,
			`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID))
		if err != nil {
			return err
		}
		if !p.IsRetained || p.RetainedByTeamID == nil || *p.RetainedByTeamID != teamID {
			return ErrNotRetainedByTeam
		}
		refund := int64(0)
		if p.RetainedPrice != nil {
			refund = *p.RetainedPrice
		}

		_, err = tx.Exec(ctx, `
			UPDATE players
			SET status = 'available', is_retained = FALSE, retained_by_team_id = NULL, retained_price = NULL,
				sold_to_team_id = NULL, sold_price = NULL, sold_at = NULL, updated_at = now()
			WHERE id = $1`, playerID)
		if err != nil {
			return fmt.Errorf("release retention: %w", err)
		}
		if err := creditTeam(ctx, tx, teamID, refund); err != nil {
			return err
		}
		return nil
	})
}

// RecalculatePurse rebuilds a team's remaining purse from its actual
// acquisitions, fixing drift from out-of-band edits.
func (r *Repository) RecalculatePurse(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var team *models.Team
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE teams t
			SET remaining_purse = t.initial_purse - COALESCE((
					SELECT SUM(COALESCE(p.sold_price, p.retained_price, 0))
					FROM players p WHERE p.sold_to_team_id = t.id
				), 0),
				updated_at = now()
			WHERE t.id = $1
			RETURNING `+teamColumns, teamID)
		var err error
		team, err = scanTeam(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// --- Config ----------------------------------------------------------------

const configKey = "config"

// GetConfig loads the league configuration, falling back to defaults when
// none has been saved yet.
func (r *Repository) GetConfig(ctx context.Context) (models.AuctionConfig, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM auction_config WHERE id = $1`, configKey).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultAuctionConfig(), nil
	}
	if err != nil {
		return models.AuctionConfig{}, fmt.Errorf("get config: %w", err)
	}
	var cfg models.AuctionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.AuctionConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// SaveConfig upserts the league configuration.
func (r *Repository) SaveConfig(ctx context.Context, cfg models.AuctionConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO auction_config (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		configKey, data)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// --- Helpers ---------------------------------------------------------------

func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// creditTeam returns money to a purse, capped at the initial amount.
func creditTeam(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, amount int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE teams
		SET remaining_purse = LEAST(remaining_purse + $2, initial_purse), updated_at = now()
		WHERE id = $1`, teamID, amount)
	if err != nil {
		return fmt.Errorf("credit team purse: %w", err)
	}
	return nil
}
