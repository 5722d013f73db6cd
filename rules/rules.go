// Package rules holds the stateless validation the room machine consults:
// room-code syntax, the closed set of buildable block types, and the
// placement-region geometry.
package rules

// BlockType is the closed set of buildable objects. Quotas are indexed by it,
// so an unknown type can never reach the quota table.
type BlockType int

const (
	BlockSquare BlockType = iota
	BlockTriangle
	BlockRectangle
	BlockCircle
	BlockTreasure // the objective; exactly one per player
	NumBlockTypes
)

var blockNames = [NumBlockTypes]string{"square", "triangle", "rectangle", "circle", "treasure"}

func (t BlockType) String() string {
	if t < 0 || t >= NumBlockTypes {
		return "unknown"
	}
	return blockNames[t]
}

// ParseBlockType maps a wire-level type tag to a BlockType.
func ParseBlockType(name string) (BlockType, bool) {
	for i, n := range blockNames {
		if n == name {
			return BlockType(i), true
		}
	}
	return 0, false
}

// Half-extents along the x axis, from the renderer's block sizes
// (square 40x40, triangle 40x40, rectangle 60x30, circle r20, treasure r15).
var blockHalfWidths = [NumBlockTypes]float64{20, 20, 30, 20, 15}

// HalfWidth returns half the physical footprint of a block along x.
func HalfWidth(t BlockType) float64 {
	return blockHalfWidths[t]
}

const RoomCodeLength = 6

// ValidRoomCode reports whether code is 6 case-insensitive alphanumeric
// characters. Callers normalize to upper case before lookup.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Area is a player's exclusive horizontal placement band.
type Area struct {
	X     float64
	Width float64
}

// InsideArea reports whether a block centered at x with the given type's
// footprint lies entirely within the area.
func InsideArea(a Area, t BlockType, x float64) bool {
	hw := HalfWidth(t)
	return x-hw >= a.X && x+hw <= a.X+a.Width
}
