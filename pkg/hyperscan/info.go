package hyperscan

import (
	"fmt"
	"strings"
)

// DbInfo is the parsed form of the engine's database description, e.g.
// "Version: 5.4.2 Features: AVX2 Mode: BLOCK".
type DbInfo struct {
	Version  string
	Features string
	Mode     ModeFlag
	Raw      string
}

func (i DbInfo) String() string { return i.Raw }

// ParseDbInfo parses a database description string.
func ParseDbInfo(s string) (DbInfo, error) {
	info := DbInfo{Raw: s}
	fields := strings.Fields(s)
	var key string
	var mode string
	for _, f := range fields {
		if strings.HasSuffix(f, ":") {
			key = strings.TrimSuffix(f, ":")
			continue
		}
		switch key {
		case "Version":
			info.Version = f
		case "Features":
			if info.Features != "" {
				info.Features += " "
			}
			info.Features += f
		case "Mode":
			mode = f
		}
	}
	if info.Version == "" || mode == "" {
		return info, fmt.Errorf("unrecognised database info %q", s)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return info, err
	}
	info.Mode = m
	return info, nil
}
