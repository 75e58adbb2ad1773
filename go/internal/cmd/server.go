package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/bwpl/auctioneer/go/internal/auction"
	"github.com/bwpl/auctioneer/go/internal/models"
	"github.com/bwpl/auctioneer/go/internal/storage"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerRoutes(mux, services)
	setupHealthCheck(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: c.Handler(mux),
	}
}

func registerRoutes(mux *http.ServeMux, s *Services) {
	mux.Handle("GET /ws", s.Relay)

	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		teams, err := s.Store.ListTeams(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	})

	mux.HandleFunc("POST /api/teams", func(w http.ResponseWriter, r *http.Request) {
		var team models.Team
		if err := json.NewDecoder(r.Body).Decode(&team); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		created, err := s.Store.CreateTeam(r.Context(), team)
		if err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusCreated, created)
	})

	mux.HandleFunc("GET /api/players", func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.ListPlayers(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	})

	mux.HandleFunc("POST /api/players/import", func(w http.ResponseWriter, r *http.Request) {
		players, err := storage.ParsePlayerCSV(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		n, err := s.Store.BulkCreatePlayers(r.Context(), players)
		if err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusCreated, map[string]int{"imported": n})
	})

	mux.HandleFunc("GET /api/players/template", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, storage.PlayerCSVTemplate())
	})

	mux.HandleFunc("POST /api/players/{id}/sold", func(w http.ResponseWriter, r *http.Request) {
		playerID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		var req struct {
			TeamID uuid.UUID `json:"teamId"`
			Price  int64     `json:"price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}

		// Durable record first; the live event only fires once the sale
		// has actually been committed.
		if err := s.Store.MarkSold(r.Context(), playerID, req.TeamID, req.Price); err != nil {
			writeError(w, err)
			return
		}
		s.Auction.MarkSold(playerID, req.TeamID, req.Price)
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "sold"})
	})

	mux.HandleFunc("POST /api/players/{id}/unsold", func(w http.ResponseWriter, r *http.Request) {
		playerID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		if err := s.Store.MarkUnsold(r.Context(), playerID); err != nil {
			writeError(w, err)
			return
		}
		s.Auction.MarkUnsold(playerID)
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "unsold"})
	})

	mux.HandleFunc("POST /api/auction/start", func(w http.ResponseWriter, r *http.Request) {
		s.Auction.StartAuction()
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/auction/pause", func(w http.ResponseWriter, r *http.Request) {
		s.Auction.PauseAuction()
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/auction/resume", func(w http.ResponseWriter, r *http.Request) {
		s.Auction.ResumeAuction()
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/auction/end", func(w http.ResponseWriter, r *http.Request) {
		s.Auction.EndAuction()
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/auction/select", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID  uuid.UUID `json:"playerId"`
			BasePrice int64     `json:"basePrice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		s.Auction.SelectPlayer(req.PlayerID, req.BasePrice)
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/auction/team-click", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TeamID uuid.UUID `json:"teamId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		inc, err := s.Bidder.ClickTeam(req.TeamID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"increment": inc,
			"state":     s.Auction.Snapshot(),
		})
	})

	mux.HandleFunc("POST /api/auction/bid", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		if err := s.Bidder.QuickBid(req.Amount); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("GET /api/auction/affordability", func(w http.ResponseWriter, r *http.Request) {
		report := s.Bidder.Affordability()
		type verdict struct {
			TeamID    uuid.UUID `json:"teamId"`
			TeamName  string    `json:"teamName"`
			MaxBid    int64     `json:"maxBid"`
			CanAfford bool      `json:"canAfford"`
			Reason    string    `json:"reason,omitempty"`
		}
		out := struct {
			Teams         []verdict `json:"teams"`
			NoneCanAfford bool      `json:"noneCanAfford"`
		}{NoneCanAfford: report.NoneCanAfford}
		for _, res := range report.Results {
			v := verdict{
				TeamID:    res.Team.ID,
				TeamName:  res.Team.Name,
				MaxBid:    res.MaxBid,
				CanAfford: res.Err == nil,
			}
			if res.Err != nil {
				v.Reason = res.Err.Error()
			}
			out.Teams = append(out.Teams, v)
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("POST /api/auction/key", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"handled": s.Keymap.Handle(req.Key),
			"state":   s.Auction.Snapshot(),
		})
	})

	mux.HandleFunc("POST /api/auction/view", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			View string `json:"view"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		s.Auction.SetActiveView(auction.View(req.View))
		writeJSON(w, http.StatusOK, s.Auction.Snapshot())
	})

	mux.HandleFunc("POST /api/players/{id}/reset", func(w http.ResponseWriter, r *http.Request) {
		playerID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		if err := s.Store.ResetPlayerToAvailable(r.Context(), playerID); err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "available"})
	})

	mux.HandleFunc("POST /api/teams/{id}/retain", func(w http.ResponseWriter, r *http.Request) {
		teamID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		var req struct {
			PlayerID uuid.UUID `json:"playerId"`
			Price    int64     `json:"price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		cfg, err := s.Store.GetConfig(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.Store.RetainPlayer(r.Context(), teamID, req.PlayerID, req.Price, cfg.MaxRetentionsPerTeam); err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "retained"})
	})

	mux.HandleFunc("POST /api/teams/{id}/release", func(w http.ResponseWriter, r *http.Request) {
		teamID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		var req struct {
			PlayerID uuid.UUID `json:"playerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		if err := s.Store.ReleaseRetainedPlayer(r.Context(), teamID, req.PlayerID); err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
	})

	mux.HandleFunc("POST /api/teams/{id}/recalculate", func(w http.ResponseWriter, r *http.Request) {
		teamID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		team, err := s.Store.RecalculatePurse(r.Context(), teamID)
		if err != nil {
			writeError(w, err)
			return
		}
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, team)
	})

	mux.HandleFunc("POST /api/auction/reset", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Store.ResetAuctionRound(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		s.Auction.ResetAuctionState()
		s.refreshAndSignal(r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	})

	mux.HandleFunc("GET /api/config/export", func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.Store.GetConfig(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		teams, err := s.Store.ListTeams(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, storage.BuildConfigExport(cfg, teams))
	})

	mux.HandleFunc("POST /api/config/import", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		doc, err := storage.ParseConfigExport(data)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(err))
			return
		}
		if err := s.Store.SaveConfig(r.Context(), doc.ToAuctionConfig()); err != nil {
			writeError(w, err)
			return
		}
		imported := 0
		for _, seed := range doc.TeamSeeds() {
			if _, err := s.Store.CreateTeam(r.Context(), seed); err != nil {
				writeError(w, err)
				return
			}
			imported++
		}
		s.refreshAndSignal(r)
		s.Bidder.SetConfig(s.Cache.Config())
		writeJSON(w, http.StatusOK, map[string]int{"teamsImported": imported})
	})
}

// refreshAndSignal reloads the local record cache and tells peers to do the
// same.
func (s *Services) refreshAndSignal(r *http.Request) {
	if err := s.Cache.Refresh(r.Context()); err != nil {
		log.Warn().Err(err).Msg("cache refresh after write failed")
	}
	s.Adapter().BroadcastDataUpdated()
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Warn().Err(err).Msg("failed to write health check response")
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrTeamNotFound), errors.Is(err, storage.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrInsufficientFunds),
		errors.Is(err, storage.ErrRetainedPlayerImmutable),
		errors.Is(err, storage.ErrAlreadyRetained),
		errors.Is(err, storage.ErrMaxRetentions),
		errors.Is(err, storage.ErrNotRetainedByTeam):
		status = http.StatusConflict
	}
	writeJSON(w, status, errBody(err))
}
