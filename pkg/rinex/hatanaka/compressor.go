// Package hatanaka implements a native Go port of the Hatanaka differential
// compressor for RINEX observation data: the epoch-driven state machine and
// the numeric/text differentiator kernels that turn an uncompressed
// observation file into its compact ("CRINEX") counterpart.
package hatanaka

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FileKind narrows the header contract Compress relies on to the single
// bit that matters here: whether the file actually carries observation
// data. Everything else about the header (station, time span, ...) is the
// surrounding RINEX package's concern.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindObservation
)

// HeaderInfo is the slice of a RINEX observation header the compressor
// needs: how many observable codes each constellation declares, and the
// implicit constellation legacy mono-GNSS files omit from the SV field.
type HeaderInfo struct {
	Kind                 FileKind
	ObsCounts            map[byte]int // constellation letter -> N(c)
	DefaultConstellation byte         // 0 if the file has no implicit default
}

type kernelSet struct {
	nd  *NumDiff
	lli *TextDiff
	ssi *TextDiff
}

type fsmState int

const (
	stateEpochDescriptor fsmState = iota
	stateBody
)

// Compressor drives the epoch state machine described by the package: it
// consumes an observation file line by line and produces the equivalent
// compact representation. A Compressor is not safe for concurrent use, but
// independent Compressors never share state and need no coordination.
type Compressor struct {
	header HeaderInfo

	state       fsmState
	firstEpoch  bool
	epochPtr    int
	nbVehicules int
	vehiculePtr int
	obsPtr      int

	descriptorLines []string
	epochDescriptor string
	flagsDescriptor strings.Builder

	epochDiff   *TextDiff
	clockDiff   *NumDiff
	clockSeeded bool

	svDiff     map[SV]map[int]*kernelSet
	forcedInit map[SV]map[int]bool

	result strings.Builder
}

// NewCompressor returns a Compressor with empty, unseeded persistent state.
func NewCompressor() *Compressor {
	clockDiff, _ := NewNumDiff(MaxCompressionOrder)
	return &Compressor{
		state:      stateEpochDescriptor,
		firstEpoch: true,
		epochDiff:  NewTextDiff(),
		clockDiff:  clockDiff,
		svDiff:     map[SV]map[int]*kernelSet{},
		forcedInit: map[SV]map[int]bool{},
	}
}

// Compress runs the whole of content through the state machine and returns
// the accumulated compact output. The Compressor may be reused across
// successive calls: all kernels and the epoch/first-epoch bookkeeping
// persist, so compress(a)+compress(b) on the same instance is equivalent to
// compress(a+b) as long as a ends on an epoch or satellite boundary.
func (c *Compressor) Compress(header HeaderInfo, content string) (string, error) {
	if header.Kind != KindObservation {
		return "", ErrNotObsRinexData
	}
	c.header = header
	c.result.Reset()
	for _, line := range splitLines(content) {
		if err := c.processLine(line); err != nil {
			return "", err
		}
	}
	return c.result.String(), nil
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isComment(line string) bool {
	if len(line) < 60 {
		return false
	}
	return strings.TrimSpace(line[60:]) == "COMMENT"
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (c *Compressor) processLine(line string) error {
	if isComment(line) {
		if strings.Contains(line, "RINEX FILE SPLICE") {
			c.state = stateEpochDescriptor
			c.epochPtr = 0
			c.vehiculePtr = 0
			c.obsPtr = 0
			c.epochDescriptor = ""
			c.descriptorLines = nil
			c.flagsDescriptor.Reset()
		}
		c.result.WriteString(line)
		c.result.WriteString("\n")
		return nil
	}
	if c.state == stateBody && c.obsPtr > 0 && strings.TrimSpace(line) == "" {
		return c.handleEarlyBlank()
	}
	if c.state == stateEpochDescriptor {
		return c.epochDescriptorLine(line)
	}
	return c.bodyLine(line)
}

func (c *Compressor) epochDescriptorLine(line string) error {
	if c.epochPtr == 0 {
		if len(line) < 33 {
			return ErrMalformedEpochDescriptor
		}
		k, err := strconv.Atoi(strings.TrimSpace(line[30:32]))
		if err != nil {
			return ErrMalformedEpochDescriptor
		}
		c.nbVehicules = k
		c.descriptorLines = c.descriptorLines[:0]
	}
	c.descriptorLines = append(c.descriptorLines, line)
	c.epochPtr++

	wantLines := ceilDiv(c.nbVehicules, 12)
	if wantLines < 1 {
		wantLines = 1
	}
	if c.epochPtr < wantLines {
		return nil
	}

	reshaped := reshapeDescriptor(c.descriptorLines)
	c.epochDescriptor = reshaped
	clockLine := c.encodeClockOffset(c.descriptorLines[0])

	if c.firstEpoch {
		c.result.WriteString(reshaped)
		c.epochDiff.Init(reshaped)
		c.result.WriteString(clockLine)
		c.result.WriteString("\n")
		c.firstEpoch = false
	} else {
		compressed := c.epochDiff.Compress(reshaped)
		c.result.WriteString(strings.TrimRight(compressed, " \n"))
		c.result.WriteString("\n")
		c.result.WriteString(clockLine)
		c.result.WriteString("\n")
	}

	c.state = stateBody
	c.obsPtr = 0
	c.vehiculePtr = 0
	c.flagsDescriptor.Reset()
	return nil
}

func reshapeDescriptor(lines []string) string {
	var sb strings.Builder
	sb.WriteByte('&')
	for _, l := range lines {
		sb.WriteString(strings.TrimLeft(l, " \t"))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// encodeClockOffset reads the receiver clock offset, when present, from
// chars 60+ of the epoch's first raw descriptor line and differentiates it
// the same way an observable is seeded/delta-encoded, just at the kernel's
// maximum order. When the field is absent the placeholder empty line is
// kept so files without a clock offset round-trip unchanged.
func (c *Compressor) encodeClockOffset(firstLine string) string {
	if len(firstLine) <= 60 {
		return ""
	}
	raw := strings.TrimSpace(firstLine[60:])
	if raw == "" {
		return ""
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	x := int64(math.Round(val * 1e12))
	if !c.clockSeeded {
		c.clockDiff.Init(MaxCompressionOrder, x)
		c.clockSeeded = true
		return fmt.Sprintf("%d&%d", MaxCompressionOrder, x)
	}
	return strconv.FormatInt(c.clockDiff.Compress(x), 10)
}

func (c *Compressor) currentSV() (SV, error) {
	lo := 32 + 3*c.vehiculePtr
	hi := lo + 3
	if hi > len(c.epochDescriptor) {
		return SV{}, ErrVehiculeIdentificationError
	}
	return parseSV(c.epochDescriptor[lo:hi], c.header.DefaultConstellation)
}

func (c *Compressor) numObsOfSV(sv SV) int {
	return c.header.ObsCounts[sv.Constellation]
}

func (c *Compressor) handleEarlyBlank() error {
	sv, err := c.currentSV()
	if err != nil {
		return err
	}
	n := c.numObsOfSV(sv)
	missing := n - c.obsPtr
	if missing > 5 {
		missing = 5
	}
	if missing < 0 {
		missing = 0
	}
	for i := 0; i < missing; i++ {
		c.result.WriteString(" ")
		c.flagsDescriptor.WriteString("  ")
		c.scheduleForcedInit(sv, c.obsPtr)
		c.obsPtr++
	}
	if c.obsPtr == n {
		return c.concludeVehicule()
	}
	return nil
}

func (c *Compressor) bodyLine(line string) error {
	nbObsLine := ceilDiv(len(line), 17)
	sv, err := c.currentSV()
	if err != nil {
		return err
	}
	n := c.numObsOfSV(sv)

	if c.obsPtr+nbObsLine > n {
		missing := n - c.obsPtr
		for i := 0; i < missing; i++ {
			c.result.WriteString(" ")
			c.scheduleForcedInit(sv, c.obsPtr)
			c.obsPtr++
		}
		if err := c.concludeVehicule(); err != nil {
			return err
		}
		if c.state == stateEpochDescriptor {
			return c.epochDescriptorLine(line)
		}
		return nil
	}

	cursor := 0
	for i := 0; i < nbObsLine; i++ {
		end := cursor + 16
		if end > len(line) {
			end = len(line)
		}
		field := line[cursor:end]
		cursor = end
		c.processField(sv, field)
		c.obsPtr++
	}

	switch {
	case c.obsPtr == n:
		return c.concludeVehicule()
	case c.obsPtr > n:
		return ErrMalformedEpochBody
	default:
		return nil
	}
}

func (c *Compressor) processField(sv SV, field string) {
	data := field
	flags := ""
	if len(data) > 14 {
		flags = data[14:]
		data = data[:14]
	}

	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		c.result.WriteString(" ")
		c.flagsDescriptor.WriteString("  ")
		c.scheduleForcedInit(sv, c.obsPtr)
		return
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		c.result.WriteString(" ")
		c.flagsDescriptor.WriteString("  ")
		c.scheduleForcedInit(sv, c.obsPtr)
		return
	}
	x := int64(math.Round(val * 1000))

	ks, isNew := c.kernelFor(sv, c.obsPtr)
	switch {
	case isNew:
		ks.nd.Init(ObservableOrder, x)
		fmt.Fprintf(&c.result, "3&%d ", x)
		c.flagsDescriptor.WriteString("  ")
		c.clearForcedInit(sv, c.obsPtr)
		return
	case c.isForcedInit(sv, c.obsPtr):
		ks.nd.Init(ObservableOrder, x)
		fmt.Fprintf(&c.result, "3&%d ", x)
		c.clearForcedInit(sv, c.obsPtr)
	default:
		d := ks.nd.Compress(x)
		c.result.WriteString(strconv.FormatInt(d, 10))
		c.result.WriteString(" ")
	}
	c.encodeFlags(ks, flags)
}

// encodeFlags applies the four cases of 4.5: a flag column is considered
// present only when it actually carries a non-blank character, whether or
// not the column exists at all in the raw line. Only the TD kernel for a
// present flag is touched, so an absent flag never perturbs the other's
// diff state.
func (c *Compressor) encodeFlags(ks *kernelSet, flags string) {
	lli, ssi := byte(' '), byte(' ')
	if len(flags) >= 1 {
		lli = flags[0]
	}
	if len(flags) >= 2 {
		ssi = flags[1]
	}
	lliHas := lli != ' '
	ssiHas := ssi != ' '
	switch {
	case lliHas && ssiHas:
		c.flagsDescriptor.WriteString(ks.lli.Compress(string(lli)))
		c.flagsDescriptor.WriteString(ks.ssi.Compress(string(ssi)))
	case lliHas:
		c.flagsDescriptor.WriteString(ks.lli.Compress(string(lli)))
		c.flagsDescriptor.WriteString(" ")
	case ssiHas:
		c.flagsDescriptor.WriteString(" ")
		c.flagsDescriptor.WriteString(ks.ssi.Compress(string(ssi)))
	default:
		c.flagsDescriptor.WriteString("  ")
	}
}

// kernelFor returns the (ND, TD_LLI, TD_SSI) triple for (sv, idx), creating
// and seeding it on first encounter. The bool result reports whether the
// triple was just created.
func (c *Compressor) kernelFor(sv SV, idx int) (*kernelSet, bool) {
	perSV, svExisted := c.svDiff[sv]
	if !svExisted {
		perSV = map[int]*kernelSet{}
		c.svDiff[sv] = perSV
	}
	if ks, ok := perSV[idx]; ok {
		return ks, false
	}

	nd, _ := NewNumDiff(ObservableOrder)
	seed := " "
	if !svExisted {
		seed = "&"
	}
	lli := NewTextDiff()
	lli.Init(seed)
	ssi := NewTextDiff()
	ssi.Init(seed)

	ks := &kernelSet{nd: nd, lli: lli, ssi: ssi}
	perSV[idx] = ks
	return ks, true
}

func (c *Compressor) scheduleForcedInit(sv SV, idx int) {
	set, ok := c.forcedInit[sv]
	if !ok {
		set = map[int]bool{}
		c.forcedInit[sv] = set
	}
	set[idx] = true
}

func (c *Compressor) isForcedInit(sv SV, idx int) bool {
	return c.forcedInit[sv][idx]
}

func (c *Compressor) clearForcedInit(sv SV, idx int) {
	delete(c.forcedInit[sv], idx)
}

func (c *Compressor) concludeVehicule() error {
	c.result.WriteString(strings.TrimRight(c.flagsDescriptor.String(), " "))
	c.result.WriteString("\n")
	c.flagsDescriptor.Reset()
	c.obsPtr = 0
	c.vehiculePtr++
	if c.vehiculePtr == c.nbVehicules {
		c.concludeEpoch()
	}
	return nil
}

func (c *Compressor) concludeEpoch() {
	c.epochPtr = 0
	c.vehiculePtr = 0
	c.epochDescriptor = ""
	c.descriptorLines = nil
	c.state = stateEpochDescriptor
}
