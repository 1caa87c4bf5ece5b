package handlers

import (
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"

	"vgp-backend/internal/metrics"
	"vgp-backend/internal/middleware"
	"vgp-backend/internal/services"
	"vgp-backend/pkg/utils"
)

type RequestLinkRequest struct {
	Email string `json:"email"`
}

// RequestLink mails a magic link
// POST /api/auth/request-link
func RequestLink(auth *services.AuthService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RequestLinkRequest
		if err := utils.DecodeJSON(w, r, 4<<10, &req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Requête invalide")
			return
		}

		err := auth.RequestLink(r.Context(), req.Email)
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			m.MagicLinks.WithLabelValues("invalid_email").Inc()
			utils.Error(w, http.StatusBadRequest, "Email invalide")
			return
		case err != nil:
			log.Printf("❌ Magic link request failed: %v", err)
			m.MagicLinks.WithLabelValues("send_failed").Inc()
			utils.Error(w, http.StatusInternalServerError, "Erreur envoi email")
			return
		}

		m.MagicLinks.WithLabelValues("sent").Inc()
		utils.Success(w, map[string]interface{}{
			"success": true,
			"message": "Email envoyé",
		})
	}
}

// VerifyLink consumes a magic link and redirects to the app with a session
// GET /api/auth/verify?token=
func VerifyLink(auth *services.AuthService, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			htmlPage(w, http.StatusBadRequest, "Lien invalide")
			return
		}

		sess, err := auth.Verify(r.Context(), token)
		switch {
		case errors.Is(err, services.ErrLinkExpired):
			m.MagicLinks.WithLabelValues("expired").Inc()
			htmlPage(w, http.StatusGone, "Lien expiré ou déjà utilisé")
			return
		case errors.Is(err, services.ErrInvalidLink):
			m.MagicLinks.WithLabelValues("invalid").Inc()
			htmlPage(w, http.StatusBadRequest, "Lien invalide")
			return
		case err != nil:
			log.Printf("❌ Magic link verification failed: %v", err)
			htmlPage(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		m.MagicLinks.WithLabelValues("verified").Inc()
		log.Printf("✅ Session opened for user %s", sess.UserID)
		http.Redirect(w, r, sess.RedirectURL, http.StatusFound)
	}
}

func htmlPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"><title>VGP Inspect</title></head>
<body><h1>VGP Inspect</h1><p>%s</p></body>
</html>
`, html.EscapeString(message))
}

// Me returns the identity of the session
// GET /api/me
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Non authentifié")
			return
		}
		utils.Success(w, map[string]string{
			"email":  user.Email,
			"userId": user.UserID,
		})
	}
}
