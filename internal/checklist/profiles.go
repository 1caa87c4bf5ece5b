package checklist

import (
	"strings"
	"time"
)

// EquipmentType identifies the kind of lifting equipment inspected
type EquipmentType string

const (
	TailgateFolding     EquipmentType = "hayon-rabattable"
	TailgateRetractable EquipmentType = "hayon-repliable"
	TailgateStacker     EquipmentType = "hayon-gerbeur"
	TailgateCrane       EquipmentType = "hayon-potence"
	TailgateSide        EquipmentType = "hayon-lateral"
	TableFixed          EquipmentType = "table-fixe"
	TableMobile         EquipmentType = "table-mobile"
)

// Family groups equipment types sharing a wire prefix
type Family string

const (
	FamilyNone     Family = ""
	FamilyTailgate Family = "hayon-"
	FamilyTable    Family = "table-"
)

// Family returns the family of the type based on its prefix
func (t EquipmentType) Family() Family {
	switch {
	case strings.HasPrefix(string(t), string(FamilyTailgate)):
		return FamilyTailgate
	case strings.HasPrefix(string(t), string(FamilyTable)):
		return FamilyTable
	}
	return FamilyNone
}

// DefaultVGPIntervalMonths applies when no profile is known for a type.
const DefaultVGPIntervalMonths = 12

// Profile holds the applicability rules of one equipment type
type Profile struct {
	Type              EquipmentType `json:"type"`
	Label             string        `json:"label"`
	AppliesSections   []SectionID   `json:"appliesSections"`
	VGPIntervalMonths int           `json:"vgpIntervalMonths"`
}

// Applies reports whether a conditional section is enabled by the profile
func (p Profile) Applies(s SectionID) bool {
	for _, id := range p.AppliesSections {
		if id == s {
			return true
		}
	}
	return false
}

// Intervals follow the arrêté du 1er mars 2004; stackers and mobile
// tables see intensive use and are checked every 6 months.
var profiles = []Profile{
	{Type: TailgateFolding, Label: "Hayon Rabattable", VGPIntervalMonths: 12},
	{Type: TailgateRetractable, Label: "Hayon Repliable", VGPIntervalMonths: 12},
	{
		Type:              TailgateStacker,
		Label:             "Hayon Gerbeur",
		AppliesSections:   []SectionID{SectionEnergy, SectionStation},
		VGPIntervalMonths: 6,
	},
	{Type: TailgateCrane, Label: "Hayon Potence", VGPIntervalMonths: 12},
	{Type: TailgateSide, Label: "Hayon Latéral", VGPIntervalMonths: 12},
	{
		Type:              TableFixed,
		Label:             "Table Élévatrice Fixe",
		AppliesSections:   []SectionID{SectionStabilisers, SectionEnergy},
		VGPIntervalMonths: 12,
	},
	{
		Type:              TableMobile,
		Label:             "Table Élévatrice Mobile",
		AppliesSections:   []SectionID{SectionChassis, SectionStabilisers, SectionEnergy, SectionStation},
		VGPIntervalMonths: 6,
	},
}

var profileIndex = func() map[EquipmentType]Profile {
	m := make(map[EquipmentType]Profile, len(profiles))
	for _, p := range profiles {
		m[p.Type] = p
	}
	return m
}()

// ProfileFor returns the profile of t. Unknown or empty types have none.
func ProfileFor(t EquipmentType) (Profile, bool) {
	p, ok := profileIndex[t]
	return p, ok
}

// Profiles lists every known profile in display order
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Label returns the display name of the type
func (t EquipmentType) Label() string {
	if p, ok := profileIndex[t]; ok {
		return p.Label
	}
	if t == "" {
		return "-"
	}
	return string(t)
}

// Known reports whether t has a registered profile
func (t EquipmentType) Known() bool {
	_, ok := profileIndex[t]
	return ok
}

// ShowsPlate reports whether a vehicle registration applies. Tables are
// not mounted on a vehicle.
func (t EquipmentType) ShowsPlate() bool {
	return t.Family() != FamilyTable
}

// NextInspectionDue returns the date of the next periodic inspection.
// Month overflow normalises the same way as time.AddDate.
func NextInspectionDue(t EquipmentType, inspected time.Time) time.Time {
	months := DefaultVGPIntervalMonths
	if p, ok := profileIndex[t]; ok {
		months = p.VGPIntervalMonths
	}
	return inspected.AddDate(0, months, 0)
}
