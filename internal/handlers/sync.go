package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/database"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/services"
	"vgp-backend/pkg/utils"
)

// Sync compares the client's summaries with the server list
// POST /api/sync
func Sync(store *database.InspectionStore, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, _, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		var req services.SyncRequest
		if err := utils.DecodeJSON(w, r, 4<<20, &req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Requête invalide")
			return
		}

		server, err := repo.List(r.Context())
		if err != nil {
			log.Printf("❌ Failed to list inspections for sync: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		var lastSync time.Time
		if req.LastSync != nil {
			lastSync = *req.LastSync
		}
		m.SyncPlans.Inc()
		utils.Success(w, services.PlanSync(lastSync, req.LocalData, server))
	}
}

type PullRequest struct {
	IDs []string `json:"ids"`
}

type PullResponse struct {
	Inspections []*checklist.Record `json:"inspections"`
	Missing     []string            `json:"missing"`
}

// maxPullIDs bounds a single pull request
const maxPullIDs = 200

// SyncPull returns the records a sync plan asked the client to download.
// Records are loaded concurrently, results keep the requested order.
// POST /api/sync/pull
func SyncPull(store *database.InspectionStore, concurrency int) http.HandlerFunc {
	if concurrency < 1 {
		concurrency = 1
	}
	return func(w http.ResponseWriter, r *http.Request) {
		repo, _, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		var req PullRequest
		if err := utils.DecodeJSON(w, r, 1<<20, &req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Requête invalide")
			return
		}
		if len(req.IDs) > maxPullIDs {
			utils.Error(w, http.StatusBadRequest, "Trop d'inspections demandées")
			return
		}

		// records[i] stays nil for ids the store does not know
		records := make([]*checklist.Record, len(req.IDs))

		g, ctx := errgroup.WithContext(r.Context())
		g.SetLimit(concurrency)
		for i, id := range req.IDs {
			g.Go(func() error {
				rec, err := repo.Load(ctx, id)
				if errors.Is(err, checklist.ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				records[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Printf("❌ Sync pull failed: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		resp := PullResponse{Inspections: []*checklist.Record{}, Missing: []string{}}
		for i, rec := range records {
			if rec == nil {
				resp.Missing = append(resp.Missing, req.IDs[i])
				continue
			}
			resp.Inspections = append(resp.Inspections, rec)
		}
		utils.Success(w, resp)
	}
}
