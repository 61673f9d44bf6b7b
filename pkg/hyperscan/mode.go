package hyperscan

import (
	"fmt"
	"strings"
)

// ModeFlag selects the scan mode a database is compiled for.
type ModeFlag uint32

const (
	BlockMode    ModeFlag = 1
	StreamMode   ModeFlag = 2
	VectoredMode ModeFlag = 4

	// Stream state horizons for start-of-match tracking in stream mode.
	SomHorizonLargeMode  ModeFlag = 1 << 24
	SomHorizonMediumMode ModeFlag = 1 << 25
	SomHorizonSmallMode  ModeFlag = 1 << 26

	modeMask       = BlockMode | StreamMode | VectoredMode
	somHorizonMask = SomHorizonLargeMode | SomHorizonMediumMode | SomHorizonSmallMode
)

// ScanMode strips horizon bits, leaving the block/stream/vectored selector.
func (m ModeFlag) ScanMode() ModeFlag { return m & modeMask }

func (m ModeFlag) String() string {
	var name string
	switch m.ScanMode() {
	case BlockMode:
		name = "BLOCK"
	case StreamMode:
		name = "STREAM"
	case VectoredMode:
		name = "VECTORED"
	default:
		name = fmt.Sprintf("MODE(%d)", uint32(m.ScanMode()))
	}
	switch m & somHorizonMask {
	case SomHorizonLargeMode:
		name += "|SOM_HORIZON_LARGE"
	case SomHorizonMediumMode:
		name += "|SOM_HORIZON_MEDIUM"
	case SomHorizonSmallMode:
		name += "|SOM_HORIZON_SMALL"
	}
	return name
}

// ParseMode accepts the mode names printed by the engine ("BLOCK", "STREAM",
// "VECTORED"), case-insensitively.
func ParseMode(s string) (ModeFlag, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLOCK", "NOSTREAM":
		return BlockMode, nil
	case "STREAM", "STREAMING":
		return StreamMode, nil
	case "VECTORED", "VECTOR":
		return VectoredMode, nil
	}
	return 0, fmt.Errorf("unknown scan mode %q", s)
}

// somHorizonRank orders horizons from cheapest to largest.
func somHorizonRank(m ModeFlag) int {
	switch m & somHorizonMask {
	case SomHorizonSmallMode:
		return 1
	case SomHorizonMediumMode:
		return 2
	case SomHorizonLargeMode:
		return 3
	}
	return 0
}
