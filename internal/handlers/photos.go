package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/photos"
	"vgp-backend/pkg/utils"
)

// CompressPhoto downscales an uploaded capture and returns it as a photo
// reference ready to attach to a record
// POST /api/photos/compress (multipart field "photo")
func CompressPhoto(m *metrics.Metrics, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, photos.MaxUploadBytes)
		file, _, err := r.FormFile("photo")
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Photo manquante")
			return
		}
		defer file.Close()

		data, err := photos.Compress(file)
		if err != nil {
			log.Printf("⚠️  Photo rejected: %v", err)
			m.PhotosCompressed.WithLabelValues("rejected").Inc()
			if errors.Is(err, photos.ErrTooLarge) {
				utils.Error(w, http.StatusRequestEntityTooLarge, "Image trop grande")
				return
			}
			utils.Error(w, http.StatusUnprocessableEntity, "Image illisible")
			return
		}

		m.PhotosCompressed.WithLabelValues("ok").Inc()
		utils.Success(w, checklist.PhotoRef{
			ID:      uuid.New().String(),
			Data:    data,
			TakenAt: now().UTC(),
		})
	}
}
