// Package params defines the bird parameter record: 22 named, bounded
// numeric fields grouped by anatomical region, their defaults, and the
// metadata table hosts use to build generic editors.
//
// A Record is a plain value. Hosts own one, edit it field by field and
// hand copies to the generators; nothing in this package keeps state.
package params

// BaseFlatDisabled is the BaseFlat value that turns the base cut off.
const BaseFlatDisabled = -100

// Record holds every tunable of a bird. Lengths are in model units,
// angles in degrees, ratios in percent.
type Record struct {
	// beak
	BeakLength    float64 `json:"beak_length"`
	BeakSize      float64 `json:"beak_size"`
	BeakWidth     float64 `json:"beak_width"`
	BeakRoundness float64 `json:"beak_roundness"`

	// head
	HeadSize          float64 `json:"head_size"`
	HeadToBelly       float64 `json:"head_to_belly"`
	EyeSize           float64 `json:"eye_size"`
	HeadLateralOffset float64 `json:"head_lateral_offset"`
	HeadLevel         float64 `json:"head_level"`
	HeadYaw           float64 `json:"head_yaw"`
	HeadPitch         float64 `json:"head_pitch"`

	// belly
	BellyLength float64 `json:"belly_length"`
	BellySize   float64 `json:"belly_size"`
	BellyFat    float64 `json:"belly_fat"`

	// bottom
	BellyToBottom float64 `json:"belly_to_bottom"`
	BottomSize    float64 `json:"bottom_size"`

	// tail
	TailLength    float64 `json:"tail_length"`
	TailWidth     float64 `json:"tail_width"`
	TailYaw       float64 `json:"tail_yaw"`
	TailPitch     float64 `json:"tail_pitch"`
	TailRoundness float64 `json:"tail_roundness"`

	// base
	BaseFlat float64 `json:"base_flat"`
}

// Defaults returns the canonical starting bird.
func Defaults() Record {
	return Record{
		BeakLength:    15,
		BeakSize:      100,
		BeakWidth:     5,
		BeakRoundness: 10,

		HeadSize:          22,
		HeadToBelly:       32,
		EyeSize:           5,
		HeadLateralOffset: 4,
		HeadLevel:         32,
		HeadYaw:           10,
		HeadPitch:         9,

		BellyLength: 60,
		BellySize:   40,
		BellyFat:    90,

		BellyToBottom: 25,
		BottomSize:    25,

		TailLength:    50,
		TailWidth:     22,
		TailYaw:       -5,
		TailPitch:     40,
		TailRoundness: 80,

		BaseFlat: 50,
	}
}

// Minimums returns a record with every field at the low end of its range.
func Minimums() Record {
	var r Record
	for _, f := range Fields() {
		r.Set(f, f.Range().Min)
	}
	return r
}

// Maximums returns a record with every field at the high end of its range.
func Maximums() Record {
	var r Record
	for _, f := range Fields() {
		r.Set(f, f.Range().Max)
	}
	return r
}

// BaseFlatEnabled reports whether the body gets a flat base cut.
func (r Record) BaseFlatEnabled() bool {
	return r.BaseFlat > BaseFlatDisabled
}

// NoseToTail is the nominal length of the bird along its main axis.
func (r Record) NoseToTail() float64 {
	return r.BeakLength + r.HeadToBelly + r.BellyToBottom + r.TailLength
}
