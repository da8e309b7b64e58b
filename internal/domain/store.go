package domain

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Location is a WGS-84 coordinate pair, always within valid ranges.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StoreRecord is the validated snapshot of one retail location. It is built
// once by BuildStoreRecord and passed by value afterwards; every numeric field
// is finite.
type StoreRecord struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`

	NPS                      float64 `json:"nps"`
	FillFoundRate            float64 `json:"fill_found_rate"`
	DamageRate               float64 `json:"damage_rate"`
	OutOfStockRate           float64 `json:"out_of_stock_rate"`
	ComplaintResolutionHours float64 `json:"complaint_resolution_hours"`

	// Optional detail fields shown on the store card.
	OpensAt              string `json:"opens_at,omitempty"`
	ClosesAt             string `json:"closes_at,omitempty"`
	Address              string `json:"address,omitempty"`
	AssignedCollaborator string `json:"assigned_collaborator,omitempty"`
	LastVisit            string `json:"last_visit,omitempty"`
}

// BuildStoreRecord converts one backend store object into a StoreRecord.
// It never fails: missing or malformed fields fall back to their defaults.
func BuildStoreRecord(obj gjson.Result) StoreRecord {
	id, _ := DecodeID(obj.Get("_id"))

	lat := Sanitize(obj.Get("location.latitude"), DefaultLatitude)
	lon := Sanitize(obj.Get("location.longitude"), DefaultLongitude)

	return StoreRecord{
		ID:   id,
		Name: stringField(obj, "nombre"),
		Location: Location{
			Latitude:  clamp(lat, -90, 90),
			Longitude: clamp(lon, -180, 180),
		},
		NPS:                      Sanitize(obj.Get("nps"), DefaultNPS),
		FillFoundRate:            Sanitize(obj.Get("fillfoundrate"), DefaultFillFoundRate),
		DamageRate:               Sanitize(obj.Get("damage_rate"), DefaultDamageRate),
		OutOfStockRate:           Sanitize(obj.Get("out_of_stock"), DefaultOutOfStockRate),
		ComplaintResolutionHours: Sanitize(obj.Get("complaint_resolution_time_hrs"), DefaultComplaintResolutionHours),

		OpensAt:              stringField(obj, "hora_abre"),
		ClosesAt:             stringField(obj, "hora_cierra"),
		Address:              stringField(obj, "direccion"),
		AssignedCollaborator: stringField(obj, "colaborador_asignado"),
		LastVisit:            stringField(obj, "fecha_ultima_visita"),
	}
}

// ParseStoreRecord is BuildStoreRecord over a raw JSON object.
func ParseStoreRecord(data []byte) StoreRecord {
	return BuildStoreRecord(gjson.ParseBytes(data))
}

// BuildStoreRecords builds one record per element of a JSON array. Non-array
// input yields an empty slice.
func BuildStoreRecords(arr gjson.Result) []StoreRecord {
	if !arr.IsArray() {
		return []StoreRecord{}
	}
	elems := arr.Array()
	out := make([]StoreRecord, 0, len(elems))
	for _, e := range elems {
		out = append(out, BuildStoreRecord(e))
	}
	return out
}

// stringField returns the string value at path, or "" for any other type.
func stringField(obj gjson.Result, path string) string {
	v := obj.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// IsValidID reports whether the record can be the target of a write.
func (s StoreRecord) IsValidID() bool {
	return s.ID > 0
}

// HasValidMetrics reports whether every metric is finite. Records built by
// BuildStoreRecord always satisfy it.
func (s StoreRecord) HasValidMetrics() bool {
	for _, v := range []float64{
		s.NPS, s.FillFoundRate, s.DamageRate, s.OutOfStockRate,
		s.ComplaintResolutionHours, s.Location.Latitude, s.Location.Longitude,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Tier classifies the record's current metrics.
func (s StoreRecord) Tier() Tier {
	return Classify(s.NPS, s.DamageRate, s.OutOfStockRate)
}

// Schedule formats opening hours for display.
func (s StoreRecord) Schedule() string {
	if s.OpensAt == "" || s.ClosesAt == "" {
		return "Horario no disponible"
	}
	if strings.Contains(strings.ToLower(s.OpensAt), "24") {
		return "24 horas"
	}
	return s.OpensAt + " - " + s.ClosesAt
}

// Collaborator returns the local part of the assigned collaborator's email.
func (s StoreRecord) Collaborator() string {
	if s.AssignedCollaborator == "" {
		return "Sin asignar"
	}
	local, _, _ := strings.Cut(s.AssignedCollaborator, "@")
	return local
}
