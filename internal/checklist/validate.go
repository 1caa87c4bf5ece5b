package checklist

import (
	"fmt"
	"strings"
)

// Result codes of Validate
const (
	CodeOK              = "ok"
	CodeNoEquipmentType = "no_equipment_type"
	CodeIncomplete      = "incomplete"
)

const msgNoEquipmentType = "Veuillez sélectionner un type d'équipement"

// MissingItem identifies an unanswered question
type MissingItem struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Section SectionID `json:"section"`
}

// Result is the completeness verdict of a record
type Result struct {
	Valid   bool          `json:"valid"`
	Code    string        `json:"code"`
	Message string        `json:"message,omitempty"`
	Missing []MissingItem `json:"missing"`
	// Warnings lists non-conformities without an observation. They never
	// make a record invalid.
	Warnings []MissingItem `json:"warnings,omitempty"`
}

// VisibleSections returns the sections shown for t and height, in order
func VisibleSections(t EquipmentType, height float64) []SectionID {
	p, _ := ProfileFor(t)
	var out []SectionID
	for _, s := range sections {
		if sectionVisible(s, p, height) {
			out = append(out, s.ID)
		}
	}
	return out
}

func sectionVisible(s Section, p Profile, height float64) bool {
	switch {
	case !s.Conditional:
		return true
	case s.ID == SectionGuardRails:
		return height > GuardRailHeight
	default:
		return p.Applies(s.ID)
	}
}

// Validate checks that every required question of the visible sections has
// an answer. It does not modify the record.
func Validate(r *Record) Result {
	if r.EquipmentType == "" {
		return Result{
			Code:    CodeNoEquipmentType,
			Message: msgNoEquipmentType,
			Missing: []MissingItem{},
		}
	}

	height := float64(r.Height)
	p, _ := ProfileFor(r.EquipmentType)
	res := Result{Missing: []MissingItem{}}

	for _, s := range sections {
		if !sectionVisible(s, p, height) {
			continue
		}
		for _, it := range r.Sections[s.ID] {
			entry := MissingItem{ID: it.ID, Label: ItemLabel(it.ID), Section: s.ID}
			if it.Status.NonConforming() && strings.TrimSpace(it.Note) == "" {
				res.Warnings = append(res.Warnings, entry)
			}
			if it.Status == StatusUnset && IsRequired(it.ID, r.EquipmentType, height) {
				res.Missing = append(res.Missing, entry)
			}
		}
	}

	res.Valid = len(res.Missing) == 0
	if res.Valid {
		res.Code = CodeOK
	} else {
		res.Code = CodeIncomplete
		res.Message = fmt.Sprintf("%d question(s) obligatoire(s) non renseignée(s)", len(res.Missing))
	}
	return res
}
