package hatanaka

import (
	"fmt"
	"strconv"
	"strings"
)

// SV identifies a satellite vehicule by constellation letter and PRN
// number, mirroring the three character field RINEX uses on the air:
// a one letter constellation code followed by a two digit PRN, e.g. "G12".
type SV struct {
	Constellation byte
	PRN           int
}

func (s SV) String() string {
	return fmt.Sprintf("%c%02d", s.Constellation, s.PRN)
}

// parseSV reads a 3 character satellite field. If the constellation letter
// position is blank (RINEX2 mono-GNSS files give only the PRN digits in
// their satellite list), def is used instead.
func parseSV(field string, def byte) (SV, error) {
	if len(field) != 3 {
		return SV{}, ErrVehiculeIdentificationError
	}
	sys := field[0]
	numField := field[1:3]
	if sys == ' ' {
		if def == 0 {
			return SV{}, ErrVehiculeIdentificationError
		}
		sys = def
	}
	prn, err := strconv.Atoi(strings.TrimSpace(numField))
	if err != nil {
		return SV{}, ErrVehiculeIdentificationError
	}
	return SV{Constellation: sys, PRN: prn}, nil
}
