package hatanaka

// MaxCompressionOrder is the highest numerical differentiation order
// accepted by NumDiff. RNX2CRX never goes past order 5 in practice; the
// compact format only ever reseeds observables at order 3.
const MaxCompressionOrder = 5

// ObservableOrder is the fixed differentiation order used for every
// observable kernel (value, not LLI/SSI) in the satellite registry.
const ObservableOrder = 3

// NumDiff implements the numerical differentiator (ND) kernel: it turns a
// stream of scaled integers into the nth order forward difference of that
// stream, the core trick behind Hatanaka compression.
//
// The kernel keeps the last order+1 rows of a forward-difference pyramid.
// Each Compress call folds in the new sample and returns the row at the
// current warm-up depth, which settles to the true order-th difference
// once enough samples have gone through.
type NumDiff struct {
	order int
	diff  []int64
	n     int // samples seen since the last Init, capped at order+1
}

// NewNumDiff allocates a kernel for the given order without seeding it.
func NewNumDiff(order int) (*NumDiff, error) {
	nd := &NumDiff{}
	if err := nd.reset(order); err != nil {
		return nil, err
	}
	return nd, nil
}

func (n *NumDiff) reset(order int) error {
	if order < 1 || order > MaxCompressionOrder {
		return ErrKernelInit
	}
	n.order = order
	n.diff = make([]int64, order+1)
	n.n = 0
	return nil
}

// Init (re)seeds the kernel with a reference value, discarding any warm-up
// state accumulated so far. The order may change across reinitializations,
// which happens whenever a satellite reappears after a data gap.
func (n *NumDiff) Init(order int, seed int64) error {
	if err := n.reset(order); err != nil {
		return err
	}
	n.diff[0] = seed
	n.n = 1
	return nil
}

// Order returns the kernel's current differentiation order.
func (n *NumDiff) Order() int { return n.order }

// Compress folds x into the difference pyramid and returns the value to
// emit for this sample: the order-th forward difference once the kernel
// has warmed up, or a lower order difference while still seeding.
func (n *NumDiff) Compress(x int64) int64 {
	next := make([]int64, n.order+1)
	next[0] = x
	for i := 1; i <= n.order; i++ {
		if i-1 < n.n {
			next[i] = next[i-1] - n.diff[i-1]
		}
	}
	depth := n.n
	if depth > n.order {
		depth = n.order
	}
	result := next[depth]
	n.diff = next
	if n.n <= n.order {
		n.n++
	}
	return result
}
