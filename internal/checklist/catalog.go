package checklist

import "fmt"

// SectionID identifies a group of checklist items
type SectionID string

const (
	SectionDocuments   SectionID = "docs"
	SectionVisual      SectionID = "visuel"
	SectionSafety      SectionID = "securite"
	SectionTests       SectionID = "essais"
	SectionChassis     SectionID = "chassis"
	SectionStabilisers SectionID = "stabilisateurs"
	SectionEnergy      SectionID = "energie"
	SectionStation     SectionID = "poste"
	SectionGuardRails  SectionID = "garde-corps"
)

// Section describes one block of the checklist form
type Section struct {
	ID          SectionID `json:"id"`
	Title       string    `json:"title"`
	Article     string    `json:"article,omitempty"`
	Conditional bool      `json:"conditional"`
	ItemPrefix  string    `json:"itemPrefix"`
	Labels      []string  `json:"labels"`
}

// ItemID returns the stable id of the item at position pos
func (s Section) ItemID(pos int) string {
	return fmt.Sprintf("%s-%d", s.ItemPrefix, pos)
}

// sections is the fixed checklist, in display order.
var sections = []Section{
	{
		ID:         SectionDocuments,
		Title:      "1. EXAMEN D'ADEQUATION ET DOCUMENTAIRE",
		Article:    "Art. 5 - Arrete 01/03/2004",
		ItemPrefix: "docs",
		Labels: []string{
			"Plaque signalétique lisible et complète",
			"CMU / Abaque de charges présent et lisible",
			"Consignes de sécurité affichées",
			"Certificat de conformité CE disponible",
			"Notice d'utilisation présente",
			"Carnet de maintenance à jour",
		},
	},
	{
		ID:         SectionVisual,
		Title:      "2. EXAMEN DE L'ETAT DE CONSERVATION",
		Article:    "Art. 9 - Arrete 01/03/2004",
		ItemPrefix: "visuel",
		Labels: []string{
			"Fixation châssis - serrage et état des boulons",
			"Revêtement sol antidérapant",
			"État général structure (déformation, corrosion, fissures)",
			"Axes et arrêts d'axes",
			"Traverse et articulations",
			"Flexibles hydrauliques (fuite, usure)",
			"Vérins hydrauliques (fuite, état)",
			"Verrouillage position route",
			"Verrouillage boîtier poste bas",
			"Commande bi-manuelle conforme",
			"Identification des commandes",
			"Sélecteur de commande",
			"Arrêt d'urgence",
			"Retour au neutre automatique",
		},
	},
	{
		ID:         SectionSafety,
		Title:      "3. DISPOSITIFS DE SECURITE",
		Article:    "Art. 9 - Arrete 01/03/2004",
		ItemPrefix: "securite",
		Labels: []string{
			"Limiteur de charge (déclenchement ≤ 110% CMU)",
			"Limiteur de débit (vitesse descente ≤ 0,15 m/s)",
			"Freinage vertical (descente ≤ 10 cm)",
			"Stop palette / butée de charge",
			"Drapeaux de signalisation",
			"Bandes réfléchissantes",
			"Feux à éclats / gyrophare",
		},
	},
	{
		ID:         SectionTests,
		Title:      "4. ESSAIS DE FONCTIONNEMENT ET EPREUVES",
		Article:    "Art. 10-11 - Arrete 01/03/2004",
		ItemPrefix: "essais",
		Labels: []string{
			"Essai des mouvements (montée, descente, inclinaison)",
			"Épreuve dynamique",
			"Épreuve statique 1h",
			"Maintien de charge 10 min (descente ≤ 10 cm)",
		},
	},
	{
		ID:          SectionChassis,
		Title:       "CHÂSSIS ET ROULEMENT",
		Conditional: true,
		ItemPrefix:  "chassis",
		Labels: []string{
			"Roues et bandages",
			"Freins de stationnement",
			"Dispositif de remorquage / timon",
		},
	},
	{
		ID:          SectionStabilisers,
		Title:       "STABILISATEURS",
		Conditional: true,
		ItemPrefix:  "stab",
		Labels: []string{
			"État des stabilisateurs",
			"Sécurité de calage (contrôle de position)",
			"Patins d'appui",
		},
	},
	{
		ID:          SectionEnergy,
		Title:       "ÉNERGIE",
		Conditional: true,
		ItemPrefix:  "energie",
		Labels: []string{
			"Batteries / alimentation électrique",
			"Câbles et connexions",
			"Groupe hydraulique",
		},
	},
	{
		ID:          SectionStation,
		Title:       "POSTE DE CONDUITE",
		Conditional: true,
		ItemPrefix:  "poste",
		Labels: []string{
			"Protège-tête",
			"Siège et commandes du poste",
		},
	},
	{
		ID:          SectionGuardRails,
		Title:       "GARDE-CORPS",
		Conditional: true,
		ItemPrefix:  "gc",
		Labels: []string{
			"Garde-corps en place et fixés",
			"Lisse, sous-lisse et plinthe",
			"Portillon d'accès à fermeture automatique",
		},
	},
}

type itemRef struct {
	section SectionID
	pos     int
	label   string
}

var (
	sectionIndex = map[SectionID]int{}
	itemIndex    = map[string]itemRef{}
)

func init() {
	for i, s := range sections {
		sectionIndex[s.ID] = i
		for pos, label := range s.Labels {
			id := s.ItemID(pos)
			if _, dup := itemIndex[id]; dup {
				panic("checklist: duplicate item id " + id)
			}
			itemIndex[id] = itemRef{section: s.ID, pos: pos, label: label}
		}
	}
}

// Sections returns the checklist sections in display order
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// SectionByID looks up a section
func SectionByID(id SectionID) (Section, bool) {
	i, ok := sectionIndex[id]
	if !ok {
		return Section{}, false
	}
	return sections[i], true
}

// ItemLabel returns the human label of an item, or the id itself when unknown
func ItemLabel(id string) string {
	if ref, ok := itemIndex[id]; ok {
		return ref.label
	}
	return id
}

// SectionOf returns the section an item belongs to
func SectionOf(id string) (SectionID, bool) {
	ref, ok := itemIndex[id]
	return ref.section, ok
}
