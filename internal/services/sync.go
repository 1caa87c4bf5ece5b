package services

import (
	"time"

	"vgp-backend/internal/checklist"
)

// SyncRequest is posted by a client holding local copies
type SyncRequest struct {
	LastSync  *time.Time          `json:"lastSync"`
	LocalData []checklist.Summary `json:"localData"`
}

// Plan lists which records each side must send
type Plan struct {
	ToUpload   []string `json:"toUpload"`
	ToDownload []string `json:"toDownload"`
}

// PlanSync compares local and server summaries, last write wins per record:
//   - local only: upload
//   - on both sides: the newer updatedAt moves, equal stamps do nothing
//   - server only: download when changed after lastSync
func PlanSync(lastSync time.Time, local, server []checklist.Summary) Plan {
	plan := Plan{ToUpload: []string{}, ToDownload: []string{}}

	serverByID := make(map[string]checklist.Summary, len(server))
	for _, s := range server {
		serverByID[s.ID] = s
	}
	localIDs := make(map[string]bool, len(local))

	for _, l := range local {
		localIDs[l.ID] = true
		s, ok := serverByID[l.ID]
		switch {
		case !ok:
			plan.ToUpload = append(plan.ToUpload, l.ID)
		case l.UpdatedAt.After(s.UpdatedAt):
			plan.ToUpload = append(plan.ToUpload, l.ID)
		case s.UpdatedAt.After(l.UpdatedAt):
			plan.ToDownload = append(plan.ToDownload, s.ID)
		}
	}

	for _, s := range server {
		if !localIDs[s.ID] && s.UpdatedAt.After(lastSync) {
			plan.ToDownload = append(plan.ToDownload, s.ID)
		}
	}
	return plan
}
