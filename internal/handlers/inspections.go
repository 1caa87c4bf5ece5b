package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/database"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/middleware"
	"vgp-backend/internal/services"
	"vgp-backend/pkg/utils"
)

// Records carry base64 photos and a signature.
const maxRecordBytes = 32 << 20

// userRepo returns the repository of the authenticated user
func userRepo(w http.ResponseWriter, r *http.Request, store *database.InspectionStore) (*database.UserInspections, string, bool) {
	user, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Non authentifié")
		return nil, "", false
	}
	return store.ForUser(user.UserID), user.UserID, true
}

// decodeRecord reads a record body and fills missing checklist positions
func decodeRecord(w http.ResponseWriter, r *http.Request) (*checklist.Record, bool) {
	var rec checklist.Record
	if err := utils.DecodeJSON(w, r, maxRecordBytes, &rec); err != nil {
		log.Printf("❌ Invalid inspection body: %v", err)
		utils.Error(w, http.StatusBadRequest, "Données d'inspection invalides")
		return nil, false
	}
	if !knownType(w, &rec) {
		return nil, false
	}
	rec.Normalize()
	return &rec, true
}

// knownType rejects equipment types outside the catalog. An empty type is
// left to validation.
func knownType(w http.ResponseWriter, rec *checklist.Record) bool {
	if rec.EquipmentType == "" || rec.EquipmentType.Known() {
		return true
	}
	utils.ErrorWith(w, http.StatusBadRequest, "Type d'équipement inconnu", map[string]interface{}{
		"code": "unknown_equipment_type",
	})
	return false
}

// ListInspections returns the user's inspection summaries, newest first
// GET /api/inspections
func ListInspections(store *database.InspectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, _, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		list, err := repo.List(r.Context())
		if err != nil {
			log.Printf("❌ Failed to list inspections: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		utils.Success(w, map[string]interface{}{"inspections": list})
	}
}

// GetInspection returns one full record
// GET /api/inspections/{id}
func GetInspection(store *database.InspectionStore) http.HandlerFunc {
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
			log.Printf("❌ Failed to load inspection: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		utils.Success(w, rec)
	}
}

// SaveInspection stores a record. Incomplete records are rejected with the
// list of unanswered questions unless ?draft=1 is set.
// POST /api/inspections
func SaveInspection(store *database.InspectionStore, notifier *services.ChangeNotifier, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, userID, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		rec, ok := decodeRecord(w, r)
		if !ok {
			return
		}

		draft := r.URL.Query().Get("draft") == "1"
		validation := checklist.Validate(rec)
		if !validation.Valid && !draft {
			m.SavesRejected.Inc()
			utils.ErrorWith(w, http.StatusUnprocessableEntity, validation.Message, map[string]interface{}{
				"code":         validation.Code,
				"missing":      validation.Missing,
				"draftAllowed": true,
			})
			return
		}

		ack, err := repo.Save(r.Context(), rec)
		if err != nil {
			log.Printf("❌ Failed to save inspection: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		mode := "final"
		if !validation.Valid {
			mode = "draft"
		}
		m.InspectionsSaved.WithLabelValues(mode).Inc()
		log.Printf("💾 Inspection %s saved (%s) for user %s", ack.ID, mode, userID)

		notifier.Notify(userID, repo, services.ChangeEvent{
			Type:      services.EventInspectionSaved,
			ID:        ack.ID,
			UpdatedAt: ack.UpdatedAt,
		})

		utils.Success(w, map[string]interface{}{
			"success":   true,
			"id":        ack.ID,
			"updatedAt": ack.UpdatedAt,
			"draft":     !validation.Valid,
			"warnings":  validation.Warnings,
		})
	}
}

// DeleteInspection removes a record
// DELETE /api/inspections/{id}
func DeleteInspection(store *database.InspectionStore, notifier *services.ChangeNotifier, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, userID, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := repo.Delete(r.Context(), id); err != nil {
			log.Printf("❌ Failed to delete inspection: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		m.InspectionDeletes.Inc()
		notifier.Notify(userID, repo, services.ChangeEvent{
			Type: services.EventInspectionDeleted,
			ID:   id,
		})
		utils.Success(w, map[string]bool{"success": true})
	}
}
