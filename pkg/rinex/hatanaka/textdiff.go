package hatanaka

// TextDiff implements the text differentiator (TD) kernel used for flags
// (LLI, SSI) and, seeded once per file, for the epoch descriptor line
// itself. It compares a new string against the previous one position by
// position: unchanged positions collapse to a space, changed ones carry
// the new character literally. Because an unchanged position is already
// written as a space, a position that legitimately changes to a space
// must be escaped with '&' so the decompressor can tell the two apart.
type TextDiff struct {
	state string
}

// NewTextDiff returns an empty, unseeded kernel.
func NewTextDiff() *TextDiff {
	return &TextDiff{}
}

// Init seeds the kernel's reference state without emitting anything.
func (t *TextDiff) Init(seed string) {
	t.state = seed
}

// Compress diffs s against the kernel's current state, updates the state
// to s, and returns the positional diff string.
func (t *TextDiff) Compress(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if i < len(t.state) && t.state[i] == s[i] {
			out[i] = ' '
			continue
		}
		if s[i] == ' ' {
			out[i] = '&'
			continue
		}
		out[i] = s[i]
	}
	t.state = s
	return string(out)
}
