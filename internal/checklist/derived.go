package checklist

import "time"

// SectionProgress is the completion badge of one section
type SectionProgress struct {
	Section   SectionID `json:"section"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Complete  bool      `json:"complete"`
	Visible   bool      `json:"visible"`
}

// DerivedView is everything the form shows that is computed from the
// record rather than entered. Hosts recompute it after each mutation.
type DerivedView struct {
	EquipmentLabel    string            `json:"equipmentLabel"`
	Required          []string          `json:"required"`
	VisibleSections   []SectionID       `json:"visibleSections"`
	Validation        Result            `json:"validation"`
	Loads             Loads             `json:"loads"`
	DerivedVerdict    Verdict           `json:"derivedVerdict"`
	Progress          []SectionProgress `json:"progress"`
	NextInspectionDue string            `json:"nextInspectionDue"`
	ShowsPlate        bool              `json:"showsPlate"`
	PhotoCount        int               `json:"photoCount"`
}

// RecomputeDerived builds the derived view of r. When the inspection date
// is missing, now is used as the base of the next due date.
func RecomputeDerived(r *Record, now time.Time) DerivedView {
	height := float64(r.Height)
	visible := VisibleSections(r.EquipmentType, height)
	shown := make(map[SectionID]bool, len(visible))
	for _, s := range visible {
		shown[s] = true
	}

	v := DerivedView{
		EquipmentLabel:  r.EquipmentType.Label(),
		Required:        []string{},
		VisibleSections: visible,
		Validation:      Validate(r),
		Loads:           RecordLoads(r),
		DerivedVerdict:  DeriveVerdict(r.Items()),
		ShowsPlate:      r.EquipmentType.ShowsPlate(),
		PhotoCount:      r.PhotoCount(),
	}
	if r.EquipmentType != "" {
		v.Required = RequiredItems(r.EquipmentType, height)
	}

	for _, s := range sections {
		items := r.Sections[s.ID]
		p := SectionProgress{Section: s.ID, Total: len(items), Visible: shown[s.ID]}
		for _, it := range items {
			// Findings are not counted as done, matching the form badges.
			if it.Status == StatusCompliant || it.Status == StatusNotApplicable {
				p.Completed++
			}
		}
		p.Complete = p.Completed == p.Total
		v.Progress = append(v.Progress, p)
	}

	base := r.InspectionDate()
	if base.IsZero() {
		base = now
	}
	v.NextInspectionDue = NextInspectionDue(r.EquipmentType, base).Format(DateLayout)
	return v
}
