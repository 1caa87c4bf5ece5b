package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/database"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/report"
	"vgp-backend/pkg/utils"
)

// CompileReport builds the structured report of a stored inspection
// POST /api/inspections/{id}/report?draft=1
func CompileReport(store *database.InspectionStore, m *metrics.Metrics, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, _, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		rec, err := repo.Load(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, checklist.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "Not found")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to load inspection for report: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		doc, err := report.Compile(rec, report.Options{
			AllowDraft: r.URL.Query().Get("draft") == "1",
			Now:        now(),
		})
		switch {
		case errors.Is(err, report.ErrIncomplete):
			v := checklist.Validate(rec)
			utils.ErrorWith(w, http.StatusUnprocessableEntity, v.Message, map[string]interface{}{
				"code":    v.Code,
				"missing": v.Missing,
			})
			return
		case errors.Is(err, report.ErrNoVerdict):
			utils.ErrorWith(w, http.StatusUnprocessableEntity, "Veuillez sélectionner un avis", map[string]interface{}{
				"code": "no_verdict",
			})
			return
		case err != nil:
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		verdict := string(doc.Verdict)
		if verdict == "" {
			verdict = "none"
		}
		m.ReportsCompiled.WithLabelValues(verdict).Inc()
		utils.Success(w, doc)
	}
}
