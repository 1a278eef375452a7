package rinex

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gnsstools/rinexgo/pkg/gnss"
)

// Eph is the interface that wraps some methods for all types of ephemeris.
type Eph interface {
	// Validate checks the ephemeris.
	Validate() error
}

// EphGPS describes a GPS ephemeris.
type EphGPS struct {
	PRN PRN

	// Clock
	TOC            time.Time // Time of Clock, clock reference epoch
	ClockBias      float64   // sc clock bias in seconds
	ClockDrift     float64   // sec/sec
	ClockDriftRate float64   // sec/sec2

	IODE   float64 // Issue of Data, Ephemeris
	Crs    float64 // meters
	DeltaN float64 // radians/sec
	M0     float64 // radians

	Cuc   float64 // radians
	Ecc   float64 // Eccentricity
	Cus   float64 // radians
	SqrtA float64 // sqrt(m)

	Toe    float64 // time of ephemeris (sec of GPS week)
	Cic    float64 // radians
	Omega0 float64 // radians
	Cis    float64 // radians

	I0       float64 // radians
	Crc      float64 // meters
	Omega    float64 // radians
	OmegaDot float64 // radians/sec

	IDOT    float64 // radians/sec
	L2Codes float64
	ToeWeek float64 // GPS week (to go with TOE) Continuous
	L2PFlag float64

	URA    float64 // SV accuracy in meters
	Health float64 // SV health (bits 17-22 w 3 sf 1)
	TGD    float64 // seconds
	IODC   float64 // Issue of Data, clock

	MessageType string  // Navigation message type, RINEX 4 only.
	Tom         float64 // transmission time of message, seconds of GPS week
	FitInterval float64 // Fit interval in hours
}

// EphGLO describes a GLONASS ephemeris.
type EphGLO struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

// EphGAL describes a Galileo ephemeris.
type EphGAL struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

// EphQZSS describes a QZSS ephemeris.
type EphQZSS struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

// EphBDS describes a chinese BDS ephemeris.
type EphBDS struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

// EphNavIC describes an indian NavIC (formerly IRNSS) ephemeris.
type EphNavIC struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

// EphSBAS describes a SBAS payload.
type EphSBAS struct {
	PRN         PRN
	TOC         time.Time
	MessageType string
}

func (EphGPS) Validate() error   { return nil }
func (EphGLO) Validate() error   { return nil }
func (EphGAL) Validate() error   { return nil }
func (EphQZSS) Validate() error  { return nil }
func (EphBDS) Validate() error   { return nil }
func (EphNavIC) Validate() error { return nil }
func (EphSBAS) Validate() error  { return nil }

// A NavHeader containes the RINEX Navigation Header information.
// All header parameters are optional and may comprise different types of ionospheric model parameters
// and time conversion parameters.
type NavHeader struct {
	RINEXVersion float32     // RINEX Format version
	RINEXType    string      // RINEX File type. N for Nav
	SatSystem    gnss.System // Satellite System. System is "Mixed" if more than one.

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation

	MergedFiles int      // Number of merged RINEX files, if this is a merged file.
	DOI         string    // Digital Object Identifier (DOI) for data citation.
	Licenses    []string // Line(s) with the data license of use.

	Comments []string // comment lines
	Labels   []string // all Header Labels found
}

// A headerLabel is a RINEX Header Label.
type headerLabel struct {
	label    string
	official bool
	optional bool
}

// NavFile contains fields and methods for RINEX navigation files and includes common methods for
// handling RINEX Nav files.
// It is useful e.g. for operations on the RINEX filename.
// If you do not need these file-related features, use the NavDecoder instead.
type NavFile struct {
	*RnxFil
	Header NavHeader
	Stats  *NavStats
}

// NewNavFile returns a new Navigation File object.
func NewNavFile(filepath string) (*NavFile, error) {
	navFil := &NavFile{RnxFil: &RnxFil{Path: filepath}}
	err := navFil.parseFilename()
	return navFil, err
}

// Validate validates the RINEX Nav file. It is valid if no error is returned.
func (f *NavFile) Validate() error {
	log.Printf("validate nav file %s", f.Path)
	r, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open nav file: %v", err)
	}
	defer r.Close()

	// Read the header
	dec, err := NewNavDecoder(r)
	if err != nil {
		return err
	}
	f.Header = dec.Header

	return dec.Header.Validate()
}

// Rnx3Filename returns the filename following the RINEX3 convention.
// Navigation filenames carry no sampling-rate field.
func (f *NavFile) Rnx3Filename() (string, error) {
	if len(f.FourCharID) != 4 {
		return "", fmt.Errorf("FourCharID: %s", f.FourCharID)
	}

	if len(f.CountryCode) != 3 {
		return "", fmt.Errorf("CountryCode: %s", f.CountryCode)
	}

	if f.DataType == "" {
		f.DataType = "GN"
	}

	var fn strings.Builder
	fn.WriteString(f.FourCharID)
	fn.WriteString(strconv.Itoa(f.MonumentNumber))
	fn.WriteString(strconv.Itoa(f.ReceiverNumber))
	fn.WriteString(f.CountryCode)

	fn.WriteString("_")

	if f.DataSource == "" {
		fn.WriteString("U")
	} else {
		fn.WriteString(f.DataSource)
	}

	fn.WriteString("_")

	fn.WriteString(strconv.Itoa(f.StartTime.Year()))
	fn.WriteString(fmt.Sprintf("%03d", f.StartTime.YearDay()))
	fn.WriteString(fmt.Sprintf("%02d", f.StartTime.Hour()))
	fn.WriteString(fmt.Sprintf("%02d", f.StartTime.Minute()))
	fn.WriteString("_")

	fn.WriteString(f.FilePeriod)
	fn.WriteString("_")

	fn.WriteString(f.DataType)
	fn.WriteString(".rnx")

	return fn.String(), nil
}

// NavStats holds some statistics about a RINEX navigation file, derived from the data.
type NavStats struct {
	NumEphemeris    int          `json:"numEphemeris"`    // The number of ephemerides in the file.
	SatSystems      []gnss.System `json:"satSystems"`      // The satellite systems found.
	Satellites      []PRN        `json:"satellites"`      // The satellites found.
	EarliestEphTime time.Time    `json:"earliestEphTime"` // Time of the earliest TOC.
	LatestEphTime   time.Time    `json:"latestEphTime"`   // Time of the latest TOC.
}

// ephPRNAndTOC extracts the PRN and time of clock carried by any concrete ephemeris type.
func ephPRNAndTOC(eph Eph) (PRN, time.Time) {
	switch e := eph.(type) {
	case *EphGPS:
		return e.PRN, e.TOC
	case *EphGLO:
		return e.PRN, e.TOC
	case *EphGAL:
		return e.PRN, e.TOC
	case *EphQZSS:
		return e.PRN, e.TOC
	case *EphBDS:
		return e.PRN, e.TOC
	case *EphNavIC:
		return e.PRN, e.TOC
	case *EphSBAS:
		return e.PRN, e.TOC
	}
	return PRN{}, time.Time{}
}

// GetStats reads the file and computes some statistics about the contained ephemerides.
func (f *NavFile) GetStats() (stats NavStats, err error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return
	}
	defer r.Close()

	dec, err := NewNavDecoder(r)
	if err != nil {
		return
	}
	f.Header = dec.Header

	sysSeen := map[gnss.System]struct{}{}
	satSeen := map[PRN]struct{}{}

	var earliest, latest time.Time
	for dec.NextEphemeris() {
		stats.NumEphemeris++
		prn, toc := ephPRNAndTOC(dec.Ephemeris())

		if _, ok := sysSeen[prn.Sys]; !ok {
			sysSeen[prn.Sys] = struct{}{}
			stats.SatSystems = append(stats.SatSystems, prn.Sys)
		}
		if _, ok := satSeen[prn]; !ok {
			satSeen[prn] = struct{}{}
			stats.Satellites = append(stats.Satellites, prn)
		}

		if earliest.IsZero() || toc.Before(earliest) {
			earliest = toc
		}
		if latest.IsZero() || toc.After(latest) {
			latest = toc
		}
	}
	if err = dec.Err(); err != nil {
		return stats, err
	}

	sort.Slice(stats.Satellites, func(i, j int) bool { return stats.Satellites[i].String() < stats.Satellites[j].String() })
	stats.EarliestEphTime = earliest
	stats.LatestEphTime = latest
	f.Stats = &stats

	return stats, nil
}

var rnx3HeaderLables = []headerLabel{
	// mandatory
	{label: "RINEX VERSION / TYPE", official: true, optional: false},
	{label: "PGM / RUN BY / DATE", official: true, optional: false},
	{label: "END OF HEADER", official: true, optional: false},
	// optional
	{label: "COMMENT", official: true, optional: true},
	{label: "IONOSPHERIC CORR", official: true, optional: true},
	{label: "TIME SYSTEM CORR", official: true, optional: true},
	{label: "LEAP SECONDS", official: true, optional: true},
	{label: "MERGED FILE", official: true, optional: true},
	{label: "DOI", official: true, optional: true},
	{label: "LICENSE OF USE", official: true, optional: true},
}

var navHeaderLables = map[float32][]headerLabel{
	2: {
		// mandatory
		{label: "RINEX VERSION / TYPE", official: true, optional: false},
		{label: "PGM / RUN BY / DATE", official: true, optional: false},
		{label: "END OF HEADER", official: true, optional: false},
		// optional
		{label: "COMMENT", official: true, optional: true},
		{label: "ION ALPHA", official: true, optional: true},
		{label: "ION BETA", official: true, optional: true},
		{label: "DELTA-UTC: A0,A1,T,W", official: true, optional: true},
		{label: "LEAP SECONDS", official: true, optional: true},
	},
	2.01: {
		// mandatory
		{label: "RINEX VERSION / TYPE", official: true, optional: false},
		{label: "PGM / RUN BY / DATE", official: true, optional: false},
		{label: "END OF HEADER", official: true, optional: false},
		// optional
		{label: "COMMENT", official: true, optional: true},
		{label: "ION ALPHA", official: true, optional: true},
		{label: "ION BETA", official: true, optional: true},
		{label: "DELTA-UTC: A0,A1,T,W", official: true, optional: true},
		{label: "LEAP SECONDS", official: true, optional: true},
		{label: "CORR TO SYSTEM TIME", official: true, optional: true},
	},
	2.10: {
		// mandatory
		{label: "RINEX VERSION / TYPE", official: true, optional: false},
		{label: "PGM / RUN BY / DATE", official: true, optional: false},
		{label: "END OF HEADER", official: true, optional: false},
		// optional
		{label: "COMMENT", official: true, optional: true},
		{label: "ION ALPHA", official: true, optional: true},
		{label: "ION BETA", official: true, optional: true},
		{label: "DELTA-UTC: A0,A1,T,W", official: true, optional: true},
		{label: "LEAP SECONDS", official: true, optional: true},
		{label: "CORR TO SYSTEM TIME", official: true, optional: true},
	},
	2.11: {
		// The "CORR TO SYSTEM TIME" header record (in 2.10 for GLONASS Nav) has been replaced by the more general record "D-UTC A0,A1,T,W,S,U" in Version 2.11.
		// mandatory
		{label: "RINEX VERSION / TYPE", official: true, optional: false},
		{label: "PGM / RUN BY / DATE", official: true, optional: false},
		{label: "END OF HEADER", official: true, optional: false},
		// optional
		{label: "COMMENT", official: true, optional: true},
		{label: "ION ALPHA", official: true, optional: true},
		{label: "ION BETA", official: true, optional: true},
		{label: "DELTA-UTC: A0,A1,T,W", official: true, optional: true},
		{label: "LEAP SECONDS", official: true, optional: true},
		{label: "CORR TO SYSTEM TIME", official: true, optional: true}, // ??
	},
	3.00: rnx3HeaderLables,
	3.01: rnx3HeaderLables,
	3.02: rnx3HeaderLables,
	3.03: rnx3HeaderLables,
	3.04: rnx3HeaderLables,
	4: {
		// unofficial CNAV files
		// mandatory
		{label: "RINEX VERSION / TYPE", optional: false},
		{label: "PGM / RUN BY / DATE", optional: false},
		{label: "END OF HEADER", optional: false},
		// optional
		{label: "COMMENT", optional: true},
		{label: "IONOSPHERIC CORR", optional: true},
		{label: "TIME SYSTEM CORR", optional: true},
		{label: "LEAP SECONDS", optional: true},
	},
}

// Validate validates the RINEX Nav file. It is valid if no error is returned.
func (hdr NavHeader) Validate() error {
	if hdr.RINEXVersion >= 3 {
		if hdr.RINEXType != "N" {
			return fmt.Errorf("invalid RINEX TYPE: %q", hdr.RINEXType)
		}
	}

	// unofficial RINEX 2.12
	if hdr.RINEXVersion == 2.12 {
		return fmt.Errorf("invalid RINEX VERSION: %.2f", 2.12)
	}

	hLablesMust, ok := navHeaderLables[hdr.RINEXVersion]
	if !ok {
		return fmt.Errorf("invalid RINEX VERSION: %.2f", hdr.RINEXVersion)
	}

	var warnings []string

	// Check existence of mandatory header lines.
	hlpmap := make(map[string]struct{}, len(hdr.Labels))
	for _, l := range hdr.Labels {
		hlpmap[l] = struct{}{}
	}
	for _, f := range hLablesMust {
		if !f.optional {
			if _, ok := hlpmap[f.label]; !ok {
				warnings = append(warnings, fmt.Sprintf("mandatory header label does not exist: %s", f.label))
			}
		}
	}

	// Vice versa, check found header lines.
	hlpmap = make(map[string]struct{}, len(hLablesMust))
	for _, h := range hLablesMust {
		hlpmap[h.label] = struct{}{}
	}
	for _, l := range hdr.Labels {
		if _, ok := hlpmap[l]; !ok {
			warnings = append(warnings, fmt.Sprintf("invalid RINEX %.2f header label: %s", hdr.RINEXVersion, l))
		}
	}

	for _, w := range warnings {
		log.Printf("nav header: %s", w)
	}

	return nil
}
