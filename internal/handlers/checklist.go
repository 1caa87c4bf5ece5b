package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"vgp-backend/internal/checklist"
	"vgp-backend/pkg/utils"
)

type ruleView struct {
	ItemID    string                    `json:"itemId"`
	Kind      checklist.RuleKind        `json:"kind"`
	Types     []checklist.EquipmentType `json:"types,omitempty"`
	Threshold float64                   `json:"threshold,omitempty"`
}

// GetProfiles returns the equipment profiles, the checklist catalog and
// the requirement rules so clients can render the form offline
// GET /api/profiles
func GetProfiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rules []ruleView
		for _, s := range checklist.Sections() {
			for pos := range s.Labels {
				id := s.ItemID(pos)
				if rule, ok := checklist.RuleFor(id); ok {
					rules = append(rules, ruleView{ItemID: id, Kind: rule.Kind, Types: rule.Types, Threshold: rule.Threshold})
				}
			}
		}
		utils.Success(w, map[string]interface{}{
			"profiles":        checklist.Profiles(),
			"sections":        checklist.Sections(),
			"rules":           rules,
			"guardRailHeight": checklist.GuardRailHeight,
		})
	}
}

// Derive returns the derived view of a posted record without storing it
// POST /api/checklist/derive
func Derive(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := decodeRecord(w, r)
		if !ok {
			return
		}
		utils.Success(w, checklist.RecomputeDerived(rec, now()))
	}
}

type AnswerRequest struct {
	Record *checklist.Record `json:"record"`
	ItemID string            `json:"itemId"`
	Status checklist.Status  `json:"status"`
	Note   *string           `json:"note,omitempty"`
}

type AnswerResponse struct {
	Record  *checklist.Record     `json:"record"`
	Notice  *checklist.Notice     `json:"notice,omitempty"`
	Derived checklist.DerivedView `json:"derived"`
}

// Answer applies one answer to a posted record, escalating the verdict
// when a finding requires it
// POST /api/checklist/answer
func Answer(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := utils.DecodeJSON(w, r, maxRecordBytes, &req); err != nil || req.Record == nil {
			utils.Error(w, http.StatusBadRequest, "Requête invalide")
			return
		}
		rec := req.Record
		if !knownType(w, rec) {
			return
		}
		rec.Normalize()

		notice, changed, err := rec.Answer(req.ItemID, req.Status)
		switch {
		case errors.Is(err, checklist.ErrUnknownItem):
			utils.Error(w, http.StatusNotFound, "Question inconnue")
			return
		case errors.Is(err, checklist.ErrInvalidStatus):
			utils.Error(w, http.StatusBadRequest, "Statut invalide")
			return
		case err != nil:
			utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		if req.Note != nil {
			if err := rec.SetNote(req.ItemID, *req.Note); err != nil {
				log.Printf("❌ Failed to set note on %s: %v", req.ItemID, err)
				utils.Error(w, http.StatusInternalServerError, "Erreur serveur")
				return
			}
		}

		resp := AnswerResponse{Record: rec, Derived: checklist.RecomputeDerived(rec, now())}
		if changed {
			resp.Notice = &notice
		}
		utils.Success(w, resp)
	}
}
