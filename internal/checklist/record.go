package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownItem   = errors.New("unknown checklist item")
	ErrInvalidStatus = errors.New("invalid item status")
	ErrUnknownPhoto  = errors.New("unknown photo")
)

// Status is the answer given to a checklist item
type Status string

const (
	StatusUnset         Status = ""
	StatusCompliant     Status = "c"
	StatusReservation   Status = "nc"  // non-conformity, correction required
	StatusBlocking      Status = "nca" // non-conformity, equipment out of service
	StatusNotApplicable Status = "na"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusCompliant, StatusReservation, StatusBlocking, StatusNotApplicable:
		return true
	}
	return false
}

// NonConforming reports whether s records a finding
func (s Status) NonConforming() bool {
	return s == StatusReservation || s == StatusBlocking
}

// Marking is the CE marking declared for the equipment
type Marking string

const (
	MarkingCE    Marking = "ce"
	MarkingNonCE Marking = "non-ce"
)

// IsCE treats an empty marking as CE, which is the form default.
func (m Marking) IsCE() bool {
	return m != MarkingNonCE
}

// Measure is a numeric form field. It decodes JSON numbers as well as the
// strings produced by HTML inputs ("", "1.8", "1,8"). Values that are not
// finite or are negative read as 0, like an empty input.
type Measure float64

func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if s == "" {
			*m = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*m = measure(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = measure(f)
	return nil
}

func measure(f float64) Measure {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return Measure(f)
}

// PhotoRef is an attached picture, stored as a data URL
type PhotoRef struct {
	ID      string    `json:"id"`
	Data    string    `json:"data"`
	TakenAt time.Time `json:"timestamp"`
}

// Item is one checklist position
type Item struct {
	ID      string     `json:"id"`
	Section SectionID  `json:"section"`
	Status  Status     `json:"status"`
	Note    string     `json:"note"`
	Photos  []PhotoRef `json:"photos,omitempty"`
}

// UnmarshalJSON also accepts the older {checked: bool} item format.
func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	var raw struct {
		plain
		Checked *bool `json:"checked"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = Item(raw.plain)
	if it.Status == StatusUnset && raw.Checked != nil && *raw.Checked {
		it.Status = StatusCompliant
	}
	return nil
}

// Record is a complete inspection: header fields, checklist, photos and
// signature. JSON names match the browser client.
type Record struct {
	ID             string               `json:"id,omitempty"`
	DateInspection string               `json:"dateInspection"`
	Inspector      string               `json:"inspecteur"`
	EquipmentType  EquipmentType        `json:"typeEquipement"`
	Marking        Marking              `json:"marquageCe"`
	Client         string               `json:"client"`
	Plate          string               `json:"immat"`
	Brand          string               `json:"marqueHayon"`
	SerialNumber   string               `json:"numSerie"`
	Capacity       Measure              `json:"cmu"`
	Height         Measure              `json:"hauteurLevage"`
	TestLoad       string               `json:"chargeEssai"`
	Verdict        Verdict              `json:"avis"`
	Observations   string               `json:"observations"`
	NextInspection string               `json:"prochaineVgp"`
	Sections       map[SectionID][]Item `json:"sections"`
	Photos         []PhotoRef           `json:"generalPhotos,omitempty"`
	Signature      string               `json:"signature,omitempty"`
	Loads          *Loads               `json:"charges,omitempty"`
	UpdatedAt      *time.Time           `json:"updatedAt,omitempty"`
}

// DateLayout is the format of date fields (HTML date inputs).
const DateLayout = "2006-01-02"

// NewRecord starts a blank inspection dated today with every checklist
// position unset.
func NewRecord(now time.Time) *Record {
	rec := &Record{
		DateInspection: now.Format(DateLayout),
		Marking:        MarkingCE,
		NextInspection: now.AddDate(0, DefaultVGPIntervalMonths, 0).Format(DateLayout),
	}
	rec.Normalize()
	return rec
}

// Normalize fills missing checklist positions, assigns catalog ids to
// positional items and fixes their section. A known id filed under another
// section moves to its own slot when that slot is still unset, otherwise it
// is dropped, so every known id ends up in exactly one place. Items with ids
// the catalog does not know are kept after the known ones.
func (r *Record) Normalize() {
	if r.Sections == nil {
		r.Sections = make(map[SectionID][]Item, len(sections))
	}
	placed := make(map[SectionID][]Item, len(sections))
	for _, s := range sections {
		items := make([]Item, len(s.Labels))
		for pos := range items {
			items[pos] = Item{ID: s.ItemID(pos), Section: s.ID}
		}
		placed[s.ID] = items
	}

	filled := make(map[string]bool)
	extra := make(map[SectionID][]Item)
	var strays []Item
	for _, s := range sections {
		for pos, it := range r.Sections[s.ID] {
			if it.ID == "" && pos < len(s.Labels) {
				it.ID = s.ItemID(pos)
			}
			ref, known := itemIndex[it.ID]
			switch {
			case !known:
				it.Section = s.ID
				extra[s.ID] = append(extra[s.ID], it)
			case ref.section != s.ID:
				strays = append(strays, it)
			case !filled[it.ID]:
				it.Section = s.ID
				placed[s.ID][ref.pos] = it
				filled[it.ID] = true
			}
		}
	}

	// Sections outside the catalog keep their unknown items only
	for _, sec := range slices.Sorted(maps.Keys(r.Sections)) {
		if _, ok := placed[sec]; ok {
			continue
		}
		var keep []Item
		for _, it := range r.Sections[sec] {
			if _, known := itemIndex[it.ID]; known {
				strays = append(strays, it)
				continue
			}
			keep = append(keep, it)
		}
		if len(keep) == 0 {
			delete(r.Sections, sec)
		} else {
			r.Sections[sec] = keep
		}
	}

	for _, it := range strays {
		if filled[it.ID] {
			continue
		}
		ref := itemIndex[it.ID]
		it.Section = ref.section
		placed[ref.section][ref.pos] = it
		filled[it.ID] = true
	}
	for _, s := range sections {
		r.Sections[s.ID] = append(placed[s.ID], extra[s.ID]...)
	}
}

func (r *Record) find(id string) (*Item, error) {
	if sec, ok := SectionOf(id); ok {
		items := r.Sections[sec]
		for i := range items {
			if items[i].ID == id {
				return &items[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
}

// Get returns a copy of the item
func (r *Record) Get(id string) (Item, bool) {
	it, err := r.find(id)
	if err != nil {
		return Item{}, false
	}
	return *it, true
}

// SetStatus records an answer. Any valid status is accepted, including a
// non-conformity without a note.
func (r *Record) SetStatus(id string, s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	it, err := r.find(id)
	if err != nil {
		return err
	}
	it.Status = s
	return nil
}

// SetNote replaces the observation text of an item
func (r *Record) SetNote(id, text string) error {
	it, err := r.find(id)
	if err != nil {
		return err
	}
	it.Note = text
	return nil
}

// Answer is the interactive path: it stores the status then lets the
// verdict aggregator escalate the record verdict. The notice is returned
// when the verdict changed.
func (r *Record) Answer(id string, s Status) (Notice, bool, error) {
	if err := r.SetStatus(id, s); err != nil {
		return Notice{}, false, err
	}
	n, changed := ApplyDerivedVerdict(r)
	return n, changed, nil
}

// AllInSection returns copies of the items of a section in form order
func (r *Record) AllInSection(s SectionID) []Item {
	items := r.Sections[s]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Items returns every item in catalog section order
func (r *Record) Items() []Item {
	var out []Item
	for _, s := range sections {
		out = append(out, r.Sections[s.ID]...)
	}
	return out
}

// AttachPhoto appends a photo to an item, or to the general photos when
// id is empty.
func (r *Record) AttachPhoto(id string, p PhotoRef) error {
	if id == "" {
		r.Photos = append(r.Photos, p)
		return nil
	}
	it, err := r.find(id)
	if err != nil {
		return err
	}
	it.Photos = append(it.Photos, p)
	return nil
}

// RemovePhoto deletes a photo from an item, or from the general photos
// when id is empty.
func (r *Record) RemovePhoto(id, photoID string) error {
	list := &r.Photos
	if id != "" {
		it, err := r.find(id)
		if err != nil {
			return err
		}
		list = &it.Photos
	}
	for i, p := range *list {
		if p.ID == photoID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPhoto, photoID)
}

// PhotoCount counts general and item photos
func (r *Record) PhotoCount() int {
	n := len(r.Photos)
	for _, items := range r.Sections {
		for _, it := range items {
			n += len(it.Photos)
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to another goroutine
func (r *Record) Clone() *Record {
	c := *r
	if r.Sections != nil {
		c.Sections = make(map[SectionID][]Item, len(r.Sections))
		for sec, items := range r.Sections {
			cp := make([]Item, len(items))
			for i, it := range items {
				it.Photos = append([]PhotoRef(nil), it.Photos...)
				cp[i] = it
			}
			c.Sections[sec] = cp
		}
	}
	c.Photos = append([]PhotoRef(nil), r.Photos...)
	if r.Loads != nil {
		l := *r.Loads
		c.Loads = &l
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// InspectionDate parses DateInspection. The zero time is returned when the
// field is empty or malformed.
func (r *Record) InspectionDate() time.Time {
	t, err := time.Parse(DateLayout, r.DateInspection)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Modified returns UpdatedAt or the zero time
func (r *Record) Modified() time.Time {
	if r.UpdatedAt == nil {
		return time.Time{}
	}
	return *r.UpdatedAt
}

// Summary is the list entry of a stored inspection
type Summary struct {
	ID             string    `json:"id"`
	Client         string    `json:"client"`
	Plate          string    `json:"immat"`
	DateInspection string    `json:"dateInspection"`
	Verdict        Verdict   `json:"avis"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summarize builds the list entry of the record
func (r *Record) Summarize() Summary {
	return Summary{
		ID:             r.ID,
		Client:         r.Client,
		Plate:          r.Plate,
		DateInspection: r.DateInspection,
		Verdict:        r.Verdict,
		UpdatedAt:      r.Modified(),
	}
}
