// Package resource loads and caches the game's data segments.
//
// Resources are listed in an index file (memlist.bin) and stored, usually
// compressed, in numbered bank files. The Store decompresses a resource on its
// first request and serves it from the cache afterwards. The game is divided
// into parts; entering a part drops everything the part does not need.
package resource

import "fmt"

// Type identifies the kind of data a resource holds.
type Type uint8

const (
	Sound            Type = 0
	Music            Type = 1
	Bitmap           Type = 2
	Palette          Type = 3
	Bytecode         Type = 4
	PolygonCinematic Type = 5
	PolygonAnimation Type = 6
)

// String returns the name of the type. Unknown values print as Type(n).
func (t Type) String() string {
	switch t {
	case Sound:
		return "Sound"
	case Music:
		return "Music"
	case Bitmap:
		return "Bitmap"
	case Palette:
		return "Palette"
	case Bytecode:
		return "Bytecode"
	case PolygonCinematic:
		return "PolygonCinematic"
	case PolygonAnimation:
		return "PolygonAnimation"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// persistent reports whether entries of this type survive Invalidate.
func (t Type) persistent() bool {
	return t >= Palette && t <= PolygonAnimation
}

// LoadState is the cache state of a descriptor.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loaded
	// NeverLoaded marks an index entry with no bank payload.
	NeverLoaded
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Loaded:
		return "Loaded"
	case NeverLoaded:
		return "NeverLoaded"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// Descriptor describes one entry of the resource index.
type Descriptor struct {
	ID           int
	Type         Type
	Bank         uint8
	Offset       uint32
	PackedSize   uint32
	UnpackedSize uint32
	Rank         uint8
	State        LoadState
}

// Compressed reports whether the payload must go through Unpack.
func (d Descriptor) Compressed() bool {
	return d.PackedSize != d.UnpackedSize
}

// Part is a game segment identifier in the range 16000..16009.
type Part uint16

const (
	PartProtection Part = 16000 + iota
	PartIntro
	PartWater
	PartPrison
	PartCity
	PartArena
	PartLuxe
	PartFinal
	PartPassword
	PartPasswordInput
)

// FirstPart and LastPart bound the valid part identifiers.
const (
	FirstPart = PartProtection
	LastPart  = PartPasswordInput
)

// Valid reports whether p names a known part.
func (p Part) Valid() bool {
	return p >= FirstPart && p <= LastPart
}

// noResource marks an absent slot in the part table.
const noResource = 0

// partEntry is the bootstrap set of a part.
type partEntry struct {
	palette, bytecode, poly1, poly2 int
}

var partTable = [...]partEntry{
	{0x14, 0x15, 0x16, noResource},
	{0x17, 0x18, 0x19, noResource},
	{0x1A, 0x1B, 0x1C, 0x11},
	{0x1D, 0x1E, 0x1F, 0x11},
	{0x20, 0x21, 0x22, 0x11},
	{0x23, 0x24, 0x25, noResource},
	{0x26, 0x27, 0x28, 0x11},
	{0x29, 0x2A, 0x2B, 0x11},
	{0x7D, 0x7E, 0x7F, noResource},
	{0x7D, 0x7E, 0x7F, noResource},
}

// BootstrapIDs returns the palette, bytecode and polygon resource ids the part
// needs before any of its code runs. The second polygon id is 0 when the part
// has no secondary polygon segment.
func (p Part) BootstrapIDs() (palette, bytecode, poly1, poly2 int) {
	e := partTable[p-FirstPart]
	return e.palette, e.bytecode, e.poly1, e.poly2
}

func (p Part) ids() []int {
	e := partTable[p-FirstPart]
	ids := []int{e.palette, e.bytecode, e.poly1}
	if e.poly2 != noResource {
		ids = append(ids, e.poly2)
	}
	return ids
}

// Segments is the bootstrap data of the current part.
type Segments struct {
	Part     Part
	Palette  []byte
	Bytecode []byte
	Polygon1 []byte
	// Polygon2 is nil when the part has no secondary polygon segment.
	Polygon2 []byte
}
