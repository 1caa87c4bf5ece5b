package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"vgp-backend/internal/checklist"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrIncomplete is returned when required questions are unanswered
	ErrIncomplete = errors.New("inspection incomplete")
	// ErrNoVerdict is returned when no conclusion has been chosen
	ErrNoVerdict = errors.New("no verdict selected")
)

// Options control report compilation
type Options struct {
	// AllowDraft compiles incomplete records; the report is flagged Draft.
	AllowDraft bool
	Now        time.Time
}

// Equipment is the identification block of the report
type Equipment struct {
	Type         checklist.EquipmentType `json:"type"`
	Label        string                  `json:"label"`
	CE           bool                    `json:"ce"`
	Brand        string                  `json:"brand"`
	SerialNumber string                  `json:"serialNumber"`
	Plate        string                  `json:"plate,omitempty"`
	Capacity     float64                 `json:"capacity"`
	Height       float64                 `json:"height"`
	TestLoad     string                  `json:"testLoad,omitempty"`
}

// ItemLine is one checklist row
type ItemLine struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Status     checklist.Status `json:"status"`
	Note       string           `json:"note,omitempty"`
	Required   bool             `json:"required"`
	PhotoCount int              `json:"photoCount"`
}

// SectionBlock is one checklist section as printed
type SectionBlock struct {
	ID      checklist.SectionID `json:"id"`
	Title   string              `json:"title"`
	Article string              `json:"article,omitempty"`
	Items   []ItemLine          `json:"items"`
}

// Finding is a non-conformity listed in the conclusion
type Finding struct {
	Section string           `json:"section"`
	Item    string           `json:"item"`
	Status  checklist.Status `json:"status"`
	Note    string           `json:"note,omitempty"`
}

// Report is the structured document handed to renderers
type Report struct {
	Reference         string                  `json:"reference"`
	FileName          string                  `json:"fileName"`
	Draft             bool                    `json:"draft"`
	GeneratedAt       time.Time               `json:"generatedAt"`
	InspectionID      string                  `json:"inspectionId,omitempty"`
	DateInspection    string                  `json:"dateInspection"`
	NextInspection    string                  `json:"nextInspection"`
	Inspector         string                  `json:"inspector"`
	Client            string                  `json:"client"`
	Equipment         Equipment               `json:"equipment"`
	Loads             checklist.Loads         `json:"loads"`
	Sections          []SectionBlock          `json:"sections"`
	Reservations      int                     `json:"reservations"`
	Blocking          int                     `json:"blocking"`
	Findings          []Finding               `json:"findings"`
	Verdict           checklist.Verdict       `json:"verdict"`
	VerdictText       string                  `json:"verdictText"`
	CorrectiveActions string                  `json:"correctiveActions"`
	Observations      string                  `json:"observations"`
	HasSignature      bool                    `json:"hasSignature"`
	PhotoCount        int                     `json:"photoCount"`
	Missing           []checklist.MissingItem `json:"missing,omitempty"`
	Warnings          []checklist.MissingItem `json:"warnings,omitempty"`
}

// VerdictText returns the formal conclusion printed on the report
func VerdictText(v checklist.Verdict) string {
	switch v {
	case checklist.VerdictCompliant:
		return "APPAREIL CONFORME - Maintien en service autorisé"
	case checklist.VerdictReservations:
		return "CONFORME SOUS RÉSERVES - Levée des réserves obligatoire"
	case checklist.VerdictNonCompliant:
		return "APPAREIL NON CONFORME - Mise hors service immédiate"
	}
	return "RÉSULTAT NON DÉFINI"
}

// CorrectiveActions returns the actions required by a verdict
func CorrectiveActions(v checklist.Verdict) string {
	switch v {
	case checklist.VerdictNonCompliant:
		return "MISE HORS SERVICE IMMÉDIATE obligatoire. Réparation requise avant toute remise en service. Nouvelle VGP à effectuer après travaux."
	case checklist.VerdictReservations:
		return "Levée des réserves obligatoire dans un délai raisonnable. Tenir le registre de sécurité à jour."
	case checklist.VerdictCompliant:
		return "Aucune action corrective requise. Maintien en service autorisé."
	}
	return "-"
}

// Compile assembles the report of rec. Unless opts.AllowDraft is set, the
// record must validate and carry a verdict.
func Compile(rec *checklist.Record, opts Options) (*Report, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	validation := checklist.Validate(rec)
	if !opts.AllowDraft {
		if !validation.Valid {
			if validation.Code == checklist.CodeNoEquipmentType {
				return nil, fmt.Errorf("%w: %s", ErrIncomplete, validation.Message)
			}
			return nil, fmt.Errorf("%w: %d required question(s) unanswered", ErrIncomplete, len(validation.Missing))
		}
		if rec.Verdict == checklist.VerdictUnset {
			return nil, ErrNoVerdict
		}
	}

	height := float64(rec.Height)
	loads := checklist.RecordLoads(rec)
	r := &Report{
		Reference:      reference(rec, opts.Now),
		FileName:       FileName(rec.Client, rec.DateInspection),
		Draft:          !validation.Valid || rec.Verdict == checklist.VerdictUnset,
		GeneratedAt:    opts.Now,
		InspectionID:   rec.ID,
		DateInspection: rec.DateInspection,
		NextInspection: rec.NextInspection,
		Inspector:      rec.Inspector,
		Client:         rec.Client,
		Equipment: Equipment{
			Type:         rec.EquipmentType,
			Label:        rec.EquipmentType.Label(),
			CE:           rec.Marking.IsCE(),
			Brand:        rec.Brand,
			SerialNumber: rec.SerialNumber,
			Capacity:     float64(rec.Capacity),
			Height:       height,
			TestLoad:     rec.TestLoad,
		},
		Loads:             loads,
		Verdict:           rec.Verdict,
		VerdictText:       VerdictText(rec.Verdict),
		CorrectiveActions: CorrectiveActions(rec.Verdict),
		Observations:      rec.Observations,
		HasSignature:      rec.Signature != "",
		PhotoCount:        rec.PhotoCount(),
		Findings:          []Finding{},
		Warnings:          validation.Warnings,
	}
	if strings.TrimSpace(r.Observations) == "" {
		r.Observations = "Néant"
	}
	if r.Equipment.Type.ShowsPlate() {
		r.Equipment.Plate = rec.Plate
	}
	if r.Draft {
		r.Missing = validation.Missing
	}

	for _, sid := range checklist.VisibleSections(rec.EquipmentType, height) {
		sec, _ := checklist.SectionByID(sid)
		block := SectionBlock{ID: sid, Title: sec.Title, Article: sec.Article}
		for _, it := range rec.AllInSection(sid) {
			line := ItemLine{
				ID:         it.ID,
				Label:      itemLabel(it.ID, loads),
				Status:     it.Status,
				Note:       it.Note,
				Required:   checklist.IsRequired(it.ID, rec.EquipmentType, height),
				PhotoCount: len(it.Photos),
			}
			block.Items = append(block.Items, line)

			switch it.Status {
			case checklist.StatusReservation:
				r.Reservations++
			case checklist.StatusBlocking:
				r.Blocking++
			default:
				continue
			}
			r.Findings = append(r.Findings, Finding{
				Section: sec.Title,
				Item:    line.Label,
				Status:  it.Status,
				Note:    it.Note,
			})
		}
		r.Sections = append(r.Sections, block)
	}

	return r, nil
}

// itemLabel adds the computed load to the proof test rows
func itemLabel(id string, loads checklist.Loads) string {
	label := checklist.ItemLabel(id)
	switch id {
	case "essais-1":
		return fmt.Sprintf("%s - charge %d kg", label, loads.Dynamic)
	case "essais-2":
		return fmt.Sprintf("%s - charge %d kg", label, loads.Static)
	}
	return label
}

func reference(rec *checklist.Record, now time.Time) string {
	suffix := "BROUILLON"
	if rec.ID != "" {
		suffix = strings.ToUpper(strings.ReplaceAll(rec.ID, "-", ""))
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
	}
	return fmt.Sprintf("VGP-%s-%s", now.Format("20060102"), suffix)
}

// FileName builds an ASCII document name from the client and the date,
// e.g. "vgp_transports_leveque_2025-03-14".
func FileName(client, date string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, strings.ToLower(strings.TrimSpace(client)))

	var b strings.Builder
	b.WriteString("vgp")
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if b.Len() == 3 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if b.Len() > 3 && !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.TrimRight(b.String(), "_")
	if date != "" {
		name += "_" + date
	}
	return name
}
