// Package gnss contains common constants and type definitions.
package gnss

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// System is a satellite system.
type System int

// Available satellite systems.
const (
	SysGPS System = iota + 1
	SysGLO
	SysGAL
	SysQZSS
	SysBDS
	SysNavIC // India's NavIC, formerly IRNSS.
	SysSBAS
	SysMIXED

	// SysIRNSS is NavIC's former name, kept as an alias for older callers.
	SysIRNSS = SysNavIC
)

var sysNames = [...]string{"", "GPS", "GLO", "GAL", "QZSS", "BDS", "NavIC", "SBAS", "MIXED"}
var sysAbbrs = [...]string{"", "G", "R", "E", "J", "C", "I", "S", "M"}

func (sys System) String() string {
	return sysNames[sys]
}

// Abbr returns the systems' abbreviation used in RINEX.
func (sys System) Abbr() string {
	return sysAbbrs[sys]
}

// Systems specifies a list of satellite systems.
type Systems []System

// String returns the contained systems in sitelog manner GPS+GLO+...
func (syss Systems) String() string {
	str := make([]string, 0, len(syss))
	for _, sys := range syss {
		str = append(str, sys.String())
	}
	return strings.Join(str, "+")
}

// MarshalJSON encodes a Systems list as an array of RINEX abbreviation
// letters, e.g. ["E","C"].
func (syss Systems) MarshalJSON() ([]byte, error) {
	abbrs := make([]string, len(syss))
	for i, sys := range syss {
		abbrs[i] = sys.Abbr()
	}
	return json.Marshal(abbrs)
}

// ParseSatSystems parses a sitelog-style satellite-system list such as
// "GPS+GLO+GAL+BDS+SBAS+IRNSS" into a Systems slice.
func ParseSatSystems(s string) (Systems, error) {
	nameToSys := map[string]System{
		"GPS": SysGPS, "GLO": SysGLO, "GAL": SysGAL, "QZSS": SysQZSS,
		"BDS": SysBDS, "IRNSS": SysNavIC, "NavIC": SysNavIC, "SBAS": SysSBAS,
		"MIXED": SysMIXED,
	}

	fields := strings.Split(s, "+")
	syss := make(Systems, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		sys, ok := nameToSys[f]
		if !ok {
			return nil, fmt.Errorf("gnss: unknown satellite system %q", f)
		}
		syss = append(syss, sys)
	}
	return syss, nil
}

var abbrToSys = map[string]System{
	"G": SysGPS, "R": SysGLO, "E": SysGAL, "J": SysQZSS,
	"C": SysBDS, "I": SysNavIC, "S": SysSBAS, "M": SysMIXED,
}

// PRN identifies a satellite by its system and pseudo-random number.
type PRN struct {
	Sys System
	Num int8
}

// String returns the satellite in the usual "G12" notation.
func (prn PRN) String() string {
	return fmt.Sprintf("%s%02d", prn.Sys.Abbr(), prn.Num)
}

// NewPRN parses a satellite identifier such as "G12" or "R 3" into a PRN.
func NewPRN(s string) (PRN, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return PRN{}, fmt.Errorf("gnss: invalid sat num: %q", s)
	}

	sys, ok := abbrToSys[s[0:1]]
	if !ok {
		return PRN{}, fmt.Errorf("gnss: invalid sat system: %q", s)
	}

	numStr := strings.TrimSpace(s[1:])
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return PRN{}, fmt.Errorf("gnss: parse sat num %q: %v", s, err)
	}

	return PRN{Sys: sys, Num: int8(num)}, nil
}
