package params

import (
	"fmt"
	"math"
	"strings"
)

// Field identifies one Record field. The constants follow the Record
// declaration order and the table below must list them in that order.
type Field int

const (
	BeakLength Field = iota
	BeakSize
	BeakWidth
	BeakRoundness
	HeadSize
	HeadToBelly
	EyeSize
	HeadLateralOffset
	HeadLevel
	HeadYaw
	HeadPitch
	BellyLength
	BellySize
	BellyFat
	BellyToBottom
	BottomSize
	TailLength
	TailWidth
	TailYaw
	TailPitch
	TailRoundness
	BaseFlat

	// NumFields is the number of Record fields.
	NumFields int = iota
)

// Group is the anatomical region a field belongs to.
type Group string

const (
	GroupBeak   Group = "beak"
	GroupHead   Group = "head"
	GroupBelly  Group = "belly"
	GroupBottom Group = "bottom"
	GroupTail   Group = "tail"
	GroupBase   Group = "base"
)

// Groups lists the regions in editor order.
func Groups() []Group {
	return []Group{GroupBeak, GroupHead, GroupBelly, GroupBottom, GroupTail, GroupBase}
}

// Range is an inclusive, advisory value range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}

// Span is the width of the range.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// FieldInfo is the metadata for one field.
type FieldInfo struct {
	Field       Field  `json:"-"`
	Key         string `json:"key"`
	Label       string `json:"label"`
	Group       Group  `json:"group"`
	Description string `json:"description"`
	Range       Range  `json:"range"`

	ref func(*Record) *float64
}

var fieldTable = [...]FieldInfo{
	{BeakLength, "beak_length", "Beak Length", GroupBeak, "Length of the beak", Range{0, 50},
		func(r *Record) *float64 { return &r.BeakLength }},
	{BeakSize, "beak_size", "Beak Size", GroupBeak, "Ratio relative to the head size", Range{20, 100},
		func(r *Record) *float64 { return &r.BeakSize }},
	{BeakWidth, "beak_width", "Beak Width", GroupBeak, "Width of the beak tip (0 is pointy)", Range{0, 25},
		func(r *Record) *float64 { return &r.BeakWidth }},
	{BeakRoundness, "beak_roundness", "Beak Roundness", GroupBeak, "Shape of the beak tip (lowest is flat)", Range{10, 200},
		func(r *Record) *float64 { return &r.BeakRoundness }},

	{HeadSize, "head_size", "Head Size", GroupHead, "Head diameter", Range{10, 40},
		func(r *Record) *float64 { return &r.HeadSize }},
	{HeadToBelly, "head_to_belly", "Head to Belly", GroupHead, "Horizontal distance from head to main body", Range{-20, 50},
		func(r *Record) *float64 { return &r.HeadToBelly }},
	{EyeSize, "eye_size", "Eye Size", GroupHead, "Size of the eyes", Range{0, 20},
		func(r *Record) *float64 { return &r.EyeSize }},
	{HeadLateralOffset, "head_lateral_offset", "Head Lateral Offset", GroupHead, "Sideways shift of the head", Range{-15, 15},
		func(r *Record) *float64 { return &r.HeadLateralOffset }},
	{HeadLevel, "head_level", "Head Level", GroupHead, "Head vertical height", Range{0, 80},
		func(r *Record) *float64 { return &r.HeadLevel }},
	{HeadYaw, "head_yaw", "Head Yaw", GroupHead, "Head horizontal rotation", Range{-45, 45},
		func(r *Record) *float64 { return &r.HeadYaw }},
	{HeadPitch, "head_pitch", "Head Pitch", GroupHead, "Head vertical rotation (positive is upwards)", Range{-80, 45},
		func(r *Record) *float64 { return &r.HeadPitch }},

	{BellyLength, "belly_length", "Belly Length", GroupBelly, "How long is the front body", Range{10, 100},
		func(r *Record) *float64 { return &r.BellyLength }},
	{BellySize, "belly_size", "Belly Size", GroupBelly, "Belly section size", Range{20, 60},
		func(r *Record) *float64 { return &r.BellySize }},
	{BellyFat, "belly_fat", "Belly Fat", GroupBelly, "Additional fatness ratio", Range{50, 150},
		func(r *Record) *float64 { return &r.BellyFat }},

	{BellyToBottom, "belly_to_bottom", "Belly to Bottom", GroupBottom, "Distance from main body center to bottom center", Range{1, 50},
		func(r *Record) *float64 { return &r.BellyToBottom }},
	{BottomSize, "bottom_size", "Bottom Size", GroupBottom, "Bottom diameter", Range{5, 50},
		func(r *Record) *float64 { return &r.BottomSize }},

	{TailLength, "tail_length", "Tail Length", GroupTail, "Tail length", Range{0, 100},
		func(r *Record) *float64 { return &r.TailLength }},
	{TailWidth, "tail_width", "Tail Width", GroupTail, "How large is the tail", Range{1, 50},
		func(r *Record) *float64 { return &r.TailWidth }},
	{TailYaw, "tail_yaw", "Tail Yaw", GroupTail, "Tail horizontal rotation", Range{-45, 45},
		func(r *Record) *float64 { return &r.TailYaw }},
	{TailPitch, "tail_pitch", "Tail Pitch", GroupTail, "Tail vertical angle (positive is upwards)", Range{-45, 90},
		func(r *Record) *float64 { return &r.TailPitch }},
	{TailRoundness, "tail_roundness", "Tail Roundness", GroupTail, "How round is the tail (lowest is flat)", Range{10, 200},
		func(r *Record) *float64 { return &r.TailRoundness }},

	{BaseFlat, "base_flat", "Base Flat", GroupBase, "Height of the flat base cut (-100 disables it)", Range{-100, 100},
		func(r *Record) *float64 { return &r.BaseFlat }},
}

var byKey = func() map[string]Field {
	m := make(map[string]Field, len(fieldTable))
	for _, info := range fieldTable {
		m[info.Key] = info.Field
	}
	return m
}()

// Fields returns every field in declaration order.
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	for i := range fieldTable {
		out[i] = fieldTable[i].Field
	}
	return out
}

// FieldsIn returns the fields of one group in declaration order.
func FieldsIn(g Group) []Field {
	var out []Field
	for _, info := range fieldTable {
		if info.Group == g {
			out = append(out, info.Field)
		}
	}
	return out
}

// Infos returns a copy of the whole metadata table.
func Infos() []FieldInfo {
	out := make([]FieldInfo, len(fieldTable))
	copy(out, fieldTable[:])
	return out
}

// Valid reports whether f names a Record field.
func (f Field) Valid() bool {
	return f >= 0 && int(f) < len(fieldTable)
}

// Info returns the metadata for f. Unknown fields yield a zero FieldInfo.
func (f Field) Info() FieldInfo {
	if !f.Valid() {
		return FieldInfo{Field: f}
	}
	return fieldTable[f]
}

// Key returns the snake_case key used in JSON and scripts.
func (f Field) Key() string { return f.Info().Key }

// Label returns the human-readable label.
func (f Field) Label() string { return f.Info().Label }

// Range returns the advisory range.
func (f Field) Range() Range { return f.Info().Range }

// Group returns the anatomical region.
func (f Field) Group() Group { return f.Info().Group }

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldTable[f].Key
}

// Lookup finds a field by key. Both snake_case and kebab-case are
// accepted, as is a leading colon.
func Lookup(key string) (Field, bool) {
	key = strings.TrimPrefix(strings.TrimSpace(key), ":")
	f, ok := byKey[strings.ReplaceAll(strings.ToLower(key), "-", "_")]
	return f, ok
}

// Get returns the value of f. Unknown fields read as 0.
func (r Record) Get(f Field) float64 {
	if !f.Valid() {
		return 0
	}
	return *fieldTable[f].ref(&r)
}

// Set assigns the value of f. Unknown fields are ignored.
func (r *Record) Set(f Field, v float64) {
	if !f.Valid() {
		return
	}
	*fieldTable[f].ref(r) = v
}

// With returns a copy of r with f set to v.
func (r Record) With(f Field, v float64) Record {
	r.Set(f, v)
	return r
}

// Values returns the field values in declaration order.
func (r Record) Values() []float64 {
	out := make([]float64, len(fieldTable))
	for i := range fieldTable {
		out[i] = *fieldTable[i].ref(&r)
	}
	return out
}

// Map returns the record keyed by field key.
func (r Record) Map() map[string]float64 {
	out := make(map[string]float64, len(fieldTable))
	for i := range fieldTable {
		out[fieldTable[i].Key] = *fieldTable[i].ref(&r)
	}
	return out
}
