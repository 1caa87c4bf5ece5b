package handlers

import (
	"log"
	"net/http"
	"strings"

	"vgp-backend/internal/database"
	"vgp-backend/pkg/utils"
)

type DeviceRequest struct {
	Token string `json:"token"`
}

// RegisterDevice stores an FCM token for change notifications
// POST /api/devices
func RegisterDevice(store *database.InspectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, userID, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		var req DeviceRequest
		if err := utils.DecodeJSON(w, r, 4<<10, &req); err != nil || strings.TrimSpace(req.Token) == "" {
			utils.Error(w, http.StatusBadRequest, "Token manquant")
			return
		}
		if err := repo.AddDevice(r.Context(), strings.TrimSpace(req.Token)); err != nil {
			log.Printf("❌ Failed to register device: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		log.Printf("📱 Device registered for user %s", userID)
		utils.Success(w, map[string]bool{"success": true})
	}
}

// UnregisterDevice forgets an FCM token
// DELETE /api/devices
func UnregisterDevice(store *database.InspectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, _, ok := userRepo(w, r, store)
		if !ok {
			return
		}
		var req DeviceRequest
		if err := utils.DecodeJSON(w, r, 4<<10, &req); err != nil || req.Token == "" {
			utils.Error(w, http.StatusBadRequest, "Token manquant")
			return
		}
		if err := repo.RemoveDevice(r.Context(), req.Token); err != nil {
			log.Printf("❌ Failed to remove device: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		utils.Success(w, map[string]bool{"success": true})
	}
}
