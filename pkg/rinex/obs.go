package rinex

// Note: fmt.Scanf is pretty slow in Go!? https://github.com/golang/go/issues/12275#issuecomment-133796990

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mholt/archiver/v3"

	"github.com/gnsstools/rinexgo/pkg/gnss"
	"github.com/gnsstools/rinexgo/pkg/rinex/hatanaka"
)

// Options for global settings.
type Options struct {
	SatSys string // satellite systems GRE...
}

// DiffOptions sets options for file comparison.
type DiffOptions struct {
	SatSys      string // satellite systems GRE...
	CheckHeader bool   // also compare the RINEX header
}

// Coord defines a XYZ coordinate.
type Coord struct {
	X, Y, Z float64
}

// CoordNEU defines a North-, East-, Up-coordinate or eccentrity
type CoordNEU struct {
	N, E, Up float64
}

// Obs specifies a RINEX observation.
type Obs struct {
	Val float64 // The observation itself.
	LLI int8    // LLI is the loss of lock indicator.
	SNR int8    // SNR is the signal-to-noise ratio.
}

// PRN specifies a GNSS satellite.
type PRN struct {
	Sys gnss.System // The satellite system.
	Num int8        // The satellite number.
	// flags
}

// newPRN returns a new PRN for the string prn that is e.g. G12.
func newPRN(prn string) (PRN, error) {
	sys, ok := sysPerAbbr[prn[:1]]
	if !ok {
		return PRN{}, fmt.Errorf("invalid satellite system: %q", prn)
	}

	snum, err := strconv.Atoi(prn[1:3])
	if err != nil {
		return PRN{}, fmt.Errorf("parse sat num: %q: %v", prn, err)
	}
	if snum < 1 || snum > 60 {
		return PRN{}, fmt.Errorf("check satellite number '%v%d'", sys, snum)
	}

	return PRN{Sys: sys, Num: int8(snum)}, nil
}

// String is a PRN Stringer.
func (prn PRN) String() string {
	return fmt.Sprintf("%s%02d", prn.Sys.Abbr(), prn.Num)
}

// ByPRN implements sort.Interface based on the PRN.
type ByPRN []PRN

func (p ByPRN) Len() int {
	return len(p)
}
func (p ByPRN) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}
func (p ByPRN) Less(i, j int) bool {
	return p[i].String() < p[j].String()
}

// SatObs contains all observations for a satellite per epoch.
type SatObs struct {
	Prn  PRN
	Obss map[ObsCode]Obs // L1C: Obs{Val:0, LLI:0, SNR:0}, L2C: Obs{Val:...},...
}

// SyncEpochs contains two epochs from different files with the same timestamp.
type SyncEpochs struct {
	Epo1 *Epoch
	Epo2 *Epoch
}

// Epoch contains a RINEX data epoch.
type Epoch struct {
	Time    time.Time // epoch time
	Flag    int8      // Epoch flag 0:OK, 1:power failure between previous and current epoch, >1 : Special event.
	NumSat  uint8     // The number of satellites in this epoch.
	ObsList []SatObs  // A list of observations per PRN.
	//Error   error // e.g. parsing error
}

// Print pretty prints the epoch.
func (epo *Epoch) Print() {
	//fmt.Printf("%+v\n", epo)
	fmt.Printf("%s Flag: %d #prn: %d\n", epo.Time.Format(time.RFC3339Nano), epo.Flag, epo.NumSat)
	for _, satObs := range epo.ObsList {
		fmt.Printf("%v -------------------------------------\n", satObs.Prn)
		for typ, obs := range satObs.Obss {
			fmt.Printf("%s: %+v\n", typ, obs)
		}
	}
}

// PrintTab prints the epoch in a tabular format.
func (epo *Epoch) PrintTab(opts Options) {
	for _, obsPerSat := range epo.ObsList {
		printSys := false
		for _, useSys := range opts.SatSys {
			if obsPerSat.Prn.Sys.Abbr() == string(useSys) {
				printSys = true
				break
			}
		}

		if !printSys {
			continue
		}

		fmt.Printf("%s %v ", epo.Time.Format(time.RFC3339Nano), obsPerSat.Prn)
		for _, obs := range obsPerSat.Obss {
			fmt.Printf("%14.03f ", obs.Val)
		}
		fmt.Printf("\n")
	}
}

// ObsMeta stores some metadata about a RINEX obs file.
type ObsMeta struct {
	NumEpochs      int                    `json:"numEpochs"`
	NumSatellites  int                    `json:"numSatellites"` // The number of satellites derived from the data.
	Sampling       time.Duration          `json:"sampling"`      // The saampling interval derived from the data.
	TimeOfFirstObs time.Time              `json:"timeOfFirstObs"`
	TimeOfLastObs  time.Time              `json:"timeOfLastObs"`
	Obsstats       map[PRN]map[string]int `json:"obsstats"` // Number of observations per PRN and observation-type.
}

// ObsCode identifies an observation channel, e.g. "L1C", "C1C", "D1C", "S1C".
type ObsCode string

// convStringsToObscodes converts a list of raw header tokens into ObsCodes.
func convStringsToObscodes(fields []string) []ObsCode {
	codes := make([]ObsCode, 0, len(fields))
	for _, f := range fields {
		codes = append(codes, ObsCode(f))
	}
	return codes
}

// A ObsHeader provides the RINEX Observation Header information.
type ObsHeader struct {
	RINEXVersion float32     // RINEX Format version
	RINEXType    string      // RINEX File type. O for Obs
	SatSystem    gnss.System // Satellite System. System is "Mixed" if more than one.

	Pgm   string // name of program creating this file
	RunBy string // name of agency creating this file
	Date  time.Time // date and time of file creation

	Comments []string // * comment lines

	MarkerName, MarkerNumber, MarkerType string // antennas' marker name, *number and type

	Observer, Agency string

	ReceiverNumber, ReceiverType, ReceiverVersion string
	AntennaNumber, AntennaType                    string

	Position     Coord    // Geocentric approximate marker position [m]
	AntennaDelta CoordNEU // North,East,Up deltas in [m]

	ObsTypes map[gnss.System][]ObsCode // List of all observation types per GNSS.

	SignalStrengthUnit string
	Interval           float64 // Observation interval in seconds
	TimeOfFirstObs     time.Time
	TimeOfLastObs      time.Time
	LeapSeconds        int         // The current number of leap seconds
	NSatellites        int         // Number of satellites, for which observations are stored in the file
	GloSlots           map[PRN]int // GLONASS slot / frequency numbers

	Labels []string // all Header Labels found
}

// NumObsOfSys returns the number of observation codes defined for the given
// satellite system, or 0 if the system is not present in the header.
func (hdr *ObsHeader) NumObsOfSys(sys gnss.System) int {
	return len(hdr.ObsTypes[sys])
}
// ObsFile contains fields and methods for RINEX observation files.
// Use NewObsFile() to instantiate a new ObsFile.
type ObsFile struct {
	*RnxFil
	Header   *ObsHeader
	Opts     *Options
	Warnings []string // non-fatal findings collected while reading the file
}

// NewObsFile returns a new ObsFile.
func NewObsFile(filepath string) (*ObsFile, error) {
	// must file exist?
	obsFil := &ObsFile{RnxFil: &RnxFil{Path: filepath}, Header: &ObsHeader{}, Opts: &Options{}}
	err := obsFil.parseFilename()
	return obsFil, err
}

// Diff compares two RINEX obs files.
func (f *ObsFile) Diff(obsFil2 *ObsFile) error {
	// file 1
	r, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open obs file: %v", err)
	}
	defer r.Close()
	dec, err := NewObsDecoder(r)
	if err != nil {
		return err
	}

	// file 2
	r2, err := os.Open(obsFil2.Path)
	if err != nil {
		return fmt.Errorf("open obs file: %v", err)
	}
	defer r2.Close()
	dec2, err := NewObsDecoder(r2)
	if err != nil {
		return err
	}

	nSyncEpochs := 0
	for dec.sync(dec2) {
		nSyncEpochs++
		syncEpo := dec.SyncEpoch()

		diff := diffEpo(syncEpo, *f.Opts)
		if diff != "" {
			fmt.Printf("diff: %s\n", diff)
		}
	}
	if err := dec.Err(); err != nil {
		return fmt.Errorf("read epochs error: %v", err)
	}

	return nil
}

// Meta reads the file and returns some metadata.
func (f *ObsFile) Meta() (stat ObsMeta, err error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return
	}
	defer r.Close()
	dec, err := NewObsDecoder(r)
	if err != nil {
		return
	}
	f.Header = &dec.Header

	numSat := 60
	if f.Header.NSatellites > 0 {
		numSat = f.Header.NSatellites
	}

	satmap := make(map[string]int, numSat)

	obsstats := make(map[PRN]map[string]int, numSat)
	numOfEpochs := 0
	intervals := make([]time.Duration, 0, 10)
	var epo, epoPrev *Epoch

	for dec.NextEpoch() {
		numOfEpochs++
		epo = dec.Epoch()
		if numOfEpochs == 1 {
			stat.TimeOfFirstObs = epo.Time
		}

		for _, obsPerSat := range epo.ObsList {
			prn := obsPerSat.Prn

			// list of all satellites
			if _, exists := satmap[prn.String()]; !exists {
				satmap[prn.String()] = 1
			}

			// observations per sat and obs-type
			for obstype, obs := range obsPerSat.Obss {
				if prn.Sys == gnss.SysGPS && prn.Num == 11 {
					fmt.Printf("%s: %s: %+v\n", prn, obstype, obs)
				}
				if _, exists := obsstats[prn]; !exists {
					obsstats[prn] = map[string]int{}
				}
				if _, exists := obsstats[prn][string(obstype)]; !exists {
					obsstats[prn][string(obstype)] = 0
				}
				if obs.Val != 0 {
					obsstats[prn][string(obstype)]++
				}
			}
		}

		if epoPrev != nil && len(intervals) <= 10 {
			intervals = append(intervals, epo.Time.Sub(epoPrev.Time))
		}
		epoPrev = epo
	}
	if err = dec.Err(); err != nil {
		return
	}

	stat.TimeOfLastObs = epoPrev.Time
	stat.NumEpochs = numOfEpochs
	stat.NumSatellites = len(satmap)
	stat.Obsstats = obsstats

	// Some checks (TODO make a separate function for checks)
	// Check observation types, see #637
	if types, exists := f.Header.ObsTypes[gnss.SysGPS]; exists {
		for _, typ := range types {
			if typ == "L2P" || typ == "C2P" {
				f.Warnings = append(f.Warnings, "observation types 'L2P' and 'C2P' are not reasonable for GPS")
				break
			}
		}
	}

	// Sampling rate
	sort.Slice(intervals, func(i, j int) bool { return intervals[i] < intervals[j] })
	stat.Sampling = intervals[int(len(intervals)/2)]

	// LLIs

	return
}

// Rnx3Filename returns the filename following the RINEX3 convention.
// In most cases we must read the read the header. The countrycode must come from an external source.
// DO NOT USE! Must parse header first!
func (f *ObsFile) Rnx3Filename() (string, error) {
	if f.DataFreq == "" || f.FilePeriod == "" {
		r, err := os.Open(f.Path)
		if err != nil {
			return "", err
		}
		defer r.Close()
		dec, err := NewObsDecoder(r)
		if err != nil {
			return "", err
		}

		if dec.Header.Interval != 0 {
			f.DataFreq = fmt.Sprintf("%02d%s", int(dec.Header.Interval), "S")
		}

		f.DataType = fmt.Sprintf("%s%s", dec.Header.SatSystem.Abbr(), "O")
	}

	// Station Identifier
	if len(f.FourCharID) != 4 {
		return "", fmt.Errorf("FourCharID: %s", f.FourCharID)
	}

	if len(f.CountryCode) != 3 {
		return "", fmt.Errorf("CountryCode: %s", f.CountryCode)
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

	// StartTime
	//BRUX00BEL_R_20183101900_01H_30S_MO.rnx
	fn.WriteString(strconv.Itoa(f.StartTime.Year()))
	fn.WriteString(fmt.Sprintf("%03d", f.StartTime.YearDay()))
	fn.WriteString(fmt.Sprintf("%02d", f.StartTime.Hour()))
	fn.WriteString(fmt.Sprintf("%02d", f.StartTime.Minute()))
	fn.WriteString("_")

	fn.WriteString(f.FilePeriod)
	fn.WriteString("_")

	fn.WriteString(f.DataFreq)
	fn.WriteString("_")

	fn.WriteString(f.DataType)

	if f.Format == "crx" {
		fn.WriteString(".crx")
	} else {
		fn.WriteString(".rnx")
	}

	if len(fn.String()) != 38 {
		return "", fmt.Errorf("invalid filename: %s", fn.String())
	}

	// Rnx3 Filename: total: 41-42 obs, 37-38 eph.

	return fn.String(), nil
}

// Compress Hatanaka-compresses an observation file and then gzips it.
// The source file is removed once the compression finishes without errors.
func (f *ObsFile) Compress() error {
	if f.Format == "crx" && f.Compression == "gz" {
		return nil
	}
	if f.Format == "rnx" && f.Compression != "" {
		return fmt.Errorf("compressed file is not Hatanaka compressed: %s", f.Path)
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}

	head, body, err := splitHeaderBody(string(raw))
	if err != nil {
		return err
	}

	dec, err := NewObsDecoder(strings.NewReader(head))
	if err != nil {
		return fmt.Errorf("reading header %s: %w", f.Path, err)
	}
	f.Header = &dec.Header

	out, err := hatanaka.NewCompressor().Compress(f.Header.hatanakaInfo(), body)
	if err != nil {
		return fmt.Errorf("hatanaka compress %s: %w", f.Path, err)
	}

	dir, base := filepath.Split(f.Path)
	crxBase, err := crxFilename(base)
	if err != nil {
		return err
	}
	crxPath := filepath.Join(dir, crxBase)

	if err := os.WriteFile(crxPath, []byte(head+out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", crxPath, err)
	}

	if err := archiver.CompressFile(crxPath, crxPath+".gz"); err != nil {
		return err
	}
	os.Remove(crxPath)
	os.Remove(f.Path)

	f.Path = crxPath + ".gz"
	f.Format = "crx"
	f.Compression = "gz"

	return nil
}

// splitHeaderBody separates a RINEX observation file's header (kept
// verbatim in the compressed output) from the epoch records the hatanaka
// compressor consumes.
func splitHeaderBody(content string) (head, body string, err error) {
	idx := strings.Index(content, "END OF HEADER")
	if idx < 0 {
		return "", "", fmt.Errorf("no END OF HEADER label found")
	}
	lineEnd := strings.IndexByte(content[idx:], '\n')
	if lineEnd < 0 {
		return "", "", fmt.Errorf("truncated header")
	}
	split := idx + lineEnd + 1
	return content[:split], content[split:], nil
}

// crxFilename derives the Hatanaka-compressed filename for a RINEX2 or
// RINEX3 observation filename without shelling out to an external tool.
func crxFilename(rnxFil string) (string, error) {
	switch {
	case Rnx2FileNamePattern.MatchString(rnxFil):
		return Rnx2FileNamePattern.ReplaceAllString(rnxFil, "${2}${3}${4}${5}.${6}d"), nil
	case Rnx3FileNamePattern.MatchString(rnxFil):
		return Rnx3FileNamePattern.ReplaceAllString(rnxFil, "${2}.crx"), nil
	default:
		return "", fmt.Errorf("file %s with no standard RINEX extension", rnxFil)
	}
}

// hatanakaInfo projects the header fields the hatanaka compressor needs:
// how many observable codes each constellation declares, and the implicit
// constellation legacy mono-GNSS files omit from the satellite field.
func (hdr *ObsHeader) hatanakaInfo() hatanaka.HeaderInfo {
	counts := make(map[byte]int, len(hdr.ObsTypes))
	for sys, codes := range hdr.ObsTypes {
		if abbr := sys.Abbr(); abbr != "" {
			counts[abbr[0]] = len(codes)
		}
	}
	var def byte
	if hdr.SatSystem != gnss.SysMIXED {
		if abbr := hdr.SatSystem.Abbr(); abbr != "" {
			def = abbr[0]
		}
	}
	return hatanaka.HeaderInfo{
		Kind:                 hatanaka.KindObservation,
		ObsCounts:            counts,
		DefaultConstellation: def,
	}
}

// IsHatanakaCompressed returns true if the obs file is Hatanaka compressed, otherwise false.
func (f *ObsFile) IsHatanakaCompressed() bool {
	return f.Format == "crx"
}

// Rnx2crx Hatanaka compresses a RINEX obs file (compact RINEX) and returns the compressed filename.
// The rnxFilename must be a valid RINEX filename.
// see http://terras.gsi.go.jp/ja/crx2rnx.html
func Rnx2crx(rnxFilename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rnxFilename), "."))

	// Check if file is already Hata compressed
	if ext == "crx" || ext == "d" {
		return rnxFilename, nil
	}

	tool, err := exec.LookPath("RNX2CRX")
	if err != nil {
		return "", err
	}

	dir, rnxFil := filepath.Split(rnxFilename)

	// Build name of target file
	crxFil := ""
	if Rnx2FileNamePattern.MatchString(rnxFil) {
		crxFil = Rnx2FileNamePattern.ReplaceAllString(rnxFil, "${2}${3}${4}${5}.${6}d")
	} else if Rnx3FileNamePattern.MatchString(rnxFil) {
		crxFil = Rnx3FileNamePattern.ReplaceAllString(rnxFil, "${2}.crx")
	} else {
		return "", fmt.Errorf("file %s with no standard RINEX extension", rnxFil)
	}

	//fmt.Printf("rnxFil: %s - crxFil: %s\n", rnxFil, crxFil)

	if crxFil == "" || rnxFil == crxFil {
		return "", fmt.Errorf("could not build compressed filename for %s", rnxFil)
	}

	// Run compression tool
	cmd := exec.Command(tool, rnxFilename, "-d", "-f")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		return "", fmt.Errorf("cmd %s failed: %v: %s", tool, err, stderr.Bytes())
	}

	// Return filepath
	crxFilePath := filepath.Join(dir, crxFil)
	if _, err := os.Stat(crxFilePath); os.IsNotExist(err) {
		return "", fmt.Errorf("compressed file does not exist: %s", crxFilePath)
	}
	return crxFilePath, nil
}

// Crx2rnx decompresses a Hatanaka-compressed RINEX obs file and returns the decompressed filename.
// The crxFilename must be a valid RINEX filename.
// see http://terras.gsi.go.jp/ja/crx2rnx.html
func Crx2rnx(crxFilename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(crxFilename), "."))

	// Check if file is already Hata decompressed
	if ext == "rnx" || ext == "o" {
		return crxFilename, nil
	}

	tool, err := exec.LookPath("CRX2RNX")
	if err != nil {
		return "", err
	}

	dir, crxFil := filepath.Split(crxFilename)

	// Build name of target file
	rnxFil := ""
	if Rnx2FileNamePattern.MatchString(crxFil) {
		rnxFil = Rnx2FileNamePattern.ReplaceAllString(crxFil, "${2}${3}${4}${5}.${6}o")
	} else if Rnx3FileNamePattern.MatchString(crxFil) {
		rnxFil = Rnx3FileNamePattern.ReplaceAllString(crxFil, "${2}.rnx")
	} else {
		return "", fmt.Errorf("file %s with no standard RINEX extension", crxFil)
	}

	if rnxFil == "" || rnxFil == crxFil {
		return "", fmt.Errorf("could not build uncompressed filename for %s", crxFil)
	}

	// Run decompression tool
	cmd := exec.Command(tool, crxFilename, "-d", "-f")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		return "", fmt.Errorf("cmd %s failed: %v: %s", tool, err, stderr.Bytes())
	}

	// Return filepath
	rnxFilePath := filepath.Join(dir, rnxFil)
	if _, err := os.Stat(rnxFilePath); os.IsNotExist(err) {
		return "", fmt.Errorf("compressed file does not exist: %s", rnxFilePath)
	}
	return rnxFilePath, nil
}

func parseFlag(str string) (int, error) {
	if str == " " {
		return 0, nil
	}
	return strconv.Atoi(str)
}

// get decimal part of a float.
func getDecimal(f float64) float64 {
	// or big.NewFloat(f).Text("f", 6)
	fBig := big.NewFloat(f)
	fint, _ := fBig.Int(nil)
	intf := new(big.Float).SetInt(fint)
	//fmt.Printf("accuracy: %d\n", acc)
	resBig := new(big.Float).Sub(fBig, intf)
	ff, _ := resBig.Float64()
	return ff
}

// compare two epochs
func diffEpo(epochs SyncEpochs, opts Options) string {
	epo1, epo2 := epochs.Epo1, epochs.Epo2
	epoTime := epo1.Time
	// if epo1.NumSat != epo2.NumSat {
	// 	return fmt.Sprintf("epo %s: different number of satellites: fil1: %d fil2:%d", epoTime, epo1.NumSat, epo2.NumSat)
	// }

	for _, obs := range epo1.ObsList {
		printSys := false
		for _, useSys := range opts.SatSys {
			if obs.Prn.Sys.Abbr() == string(useSys) {
				printSys = true
				break
			}
		}

		if !printSys {
			continue
		}

		obs2, err := getObsByPRN(epo2.ObsList, obs.Prn)
		if err != nil {
			fmt.Printf("%v\n", err)
			continue
		}

		diffObs(obs, obs2, epoTime, obs.Prn)
	}

	return ""
}

func getObsByPRN(obslist []SatObs, prn PRN) (SatObs, error) {
	for _, obs := range obslist {
		if obs.Prn == prn {
			return obs, nil
		}
	}

	return SatObs{}, fmt.Errorf("no oberservations found for prn %v", prn)
}

func diffObs(obs1, obs2 SatObs, epoTime time.Time, prn PRN) string {
	deltaPhase := 0.005
	checkSNR := false
	for k, o1 := range obs1.Obss {
		if o2, ok := obs2.Obss[k]; ok {
			val1, val2 := o1.Val, o2.Val
			if strings.HasPrefix(string(k), "L") { // phase observations
				val1 = getDecimal(val1)
				val2 = getDecimal(val2)
			}
			if (o1.LLI != o2.LLI) || (math.Abs(val1-val2) > deltaPhase) {
				fmt.Printf("%s %v %02d %s %s %14.03f %d %d | %14.03f %d %d\n", epoTime.Format(time.RFC3339Nano), prn.Sys, prn.Num, k[:1], k, val1, o1.LLI, o1.SNR, val2, o2.LLI, o2.SNR)
			} else if checkSNR && o1.SNR != o2.SNR {
				fmt.Printf("%s %v %02d %s %s %14.03f %d %d | %14.03f %d %d\n", epoTime.Format(time.RFC3339Nano), prn.Sys, prn.Num, k[:1], k, val1, o1.LLI, o1.SNR, val2, o2.LLI, o2.SNR)
			}

			// if o1.SNR != o2.SNR {
			// 	fmt.Printf("%s: SNR: %s: %d %d\n", epoTime.Format(time.RFC3339Nano), k, o1.SNR, o2.SNR)
			// }
			// if val1 != val2 {
			// 	fmt.Printf("%s: val: %s: %14.03f %14.03f\n", epoTime.Format(time.RFC3339Nano), k, val1, val2)
			// }
		} else {
			fmt.Printf("Key %q does not exist\n", k)
		}

	}

	return ""
}
