package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"vgp-backend/internal/middleware"
	"vgp-backend/pkg/utils"
)

// DiagnosticLog represents a diagnostic log sent by the inspection app
type DiagnosticLog struct {
	Timestamp string                 `json:"timestamp"`
	Context   string                 `json:"context"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Platform  string                 `json:"platform"`
}

// ReceiveDiagnosticLog handles diagnostic logs from the app
// POST /api/logs/diagnostic
func ReceiveDiagnosticLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logEntry DiagnosticLog
		if err := utils.DecodeJSON(w, r, 64<<10, &logEntry); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		prefix := "📱"
		switch logEntry.Level {
		case "ERROR":
			prefix = "🔴"
		case "WARNING":
			prefix = "🟡"
		case "INFO":
			prefix = "🔵"
		}

		user, _ := middleware.GetUserFromContext(r)

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("%s APP DIAGNOSTIC [%s]", prefix, logEntry.Level)
		log.Printf("   User:      %s", user.UserID)
		log.Printf("   Platform:  %s", logEntry.Platform)
		log.Printf("   Context:   %s", logEntry.Context)
		log.Printf("   Timestamp: %s", logEntry.Timestamp)
		log.Printf("   Message:   %s", logEntry.Message)
		if len(logEntry.Data) > 0 {
			if dataJSON, err := json.MarshalIndent(logEntry.Data, "      ", "  "); err == nil {
				log.Printf("   Data:\n      %s", string(dataJSON))
			}
		}
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		utils.Success(w, map[string]string{"status": "received"})
	}
}
