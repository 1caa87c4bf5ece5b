package services

import (
	"reflect"
	"testing"
	"time"

	"vgp-backend/internal/checklist"
)

func at(minute int) time.Time {
	return time.Date(2025, 3, 14, 10, minute, 0, 0, time.UTC)
}

func sum(id string, minute int) checklist.Summary {
	return checklist.Summary{ID: id, UpdatedAt: at(minute)}
}

func TestPlanSync(t *testing.T) {
	tests := []struct {
		name         string
		lastSync     time.Time
		local        []checklist.Summary
		server       []checklist.Summary
		wantUpload   []string
		wantDownload []string
	}{
		{
			name:         "empty",
			wantUpload:   []string{},
			wantDownload: []string{},
		},
		{
			name:         "local only uploads",
			local:        []checklist.Summary{sum("a", 1)},
			wantUpload:   []string{"a"},
			wantDownload: []string{},
		},
		{
			name:         "newer local wins",
			local:        []checklist.Summary{sum("a", 5)},
			server:       []checklist.Summary{sum("a", 3)},
			wantUpload:   []string{"a"},
			wantDownload: []string{},
		},
		{
			name:         "newer server wins",
			local:        []checklist.Summary{sum("a", 3)},
			server:       []checklist.Summary{sum("a", 5)},
			wantUpload:   []string{},
			wantDownload: []string{"a"},
		},
		{
			name:         "equal stamps do nothing",
			local:        []checklist.Summary{sum("a", 3)},
			server:       []checklist.Summary{sum("a", 3)},
			wantUpload:   []string{},
			wantDownload: []string{},
		},
		{
			name:         "server only after last sync downloads",
			lastSync:     at(2),
			server:       []checklist.Summary{sum("old", 1), sum("new", 4)},
			wantUpload:   []string{},
			wantDownload: []string{"new"},
		},
		{
			name:         "first sync downloads everything",
			server:       []checklist.Summary{sum("x", 1), sum("y", 2)},
			wantUpload:   []string{},
			wantDownload: []string{"x", "y"},
		},
		{
			name:     "mixed",
			lastSync: at(2),
			local:    []checklist.Summary{sum("a", 9), sum("b", 1), sum("c", 1)},
			server:   []checklist.Summary{sum("d", 5), sum("b", 3), sum("a", 4)},
			// c is local only, b is newer on the server, d is new on the server
			wantUpload:   []string{"a", "c"},
			wantDownload: []string{"b", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanSync(tt.lastSync, tt.local, tt.server)
			if !reflect.DeepEqual(plan.ToUpload, tt.wantUpload) {
				t.Errorf("upload = %v, want %v", plan.ToUpload, tt.wantUpload)
			}
			if !reflect.DeepEqual(plan.ToDownload, tt.wantDownload) {
				t.Errorf("download = %v, want %v", plan.ToDownload, tt.wantDownload)
			}
		})
	}
}
