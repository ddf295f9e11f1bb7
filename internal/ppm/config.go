// Package ppm implements the statistical modeling and arithmetic coding
// core of the pzip format: a variable-order PPM model with a deterministic
// long-context extender and secondary escape estimation, driving a
// bitwise carry-propagating arithmetic coder.
//
// All state lives in a single Model value; nothing in this package is
// shared across Model instances, so concurrent compressions each get
// their own Model and never interfere with one another.
package ppm

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "ppm: " + string(e) }

// Tunable constants. These are load-bearing: changing any of them changes
// the set of bits an encoder and decoder agree on, and therefore the wire
// format. They are not exposed as runtime configuration for that reason.
const (
	// MaxOrder is the highest-order context model maintained (order 0..8).
	MaxOrder = 8

	// MaxContextLen is how many bytes of run-up history must be available
	// (and seeded) before the first real symbol in the stream.
	MaxContextLen = 32

	// SeedBytes is how many leading bytes of the input are emitted
	// verbatim ahead of the arithmetic-coded payload, so that the decoder
	// can reconstruct the run-up history before decoding symbol zero.
	SeedBytes = 8

	// SeedByte fills the run-up history preceding the first real input
	// byte, the same constant used by both encoder and decoder.
	SeedByte = 214

	// TrieBudgetContexts bounds how many Context nodes the trie will
	// allocate before it starts recycling least-recently-used leaves.
	// The original measures this in megabytes of C structs; this port
	// measures it directly in node count, sized so the working set is
	// comparable for typical inputs.
	TrieBudgetContexts = 1 << 20

	contextSymbolIncNovel = 1
	contextSymbolInc      = 1
	contextEscapeInc      = 1
	contextEscapeMax      = 20

	// contextCountHalveThreshold is the total_symbol_count at which a
	// context's follow-set counts are halved, to keep statistics
	// adaptive to recent input and to bound counter growth.
	contextCountHalveThreshold = 4096

	seeInitScale      = 7
	seeInitEsc        = 8
	seeInitTot        = 18
	seeInc            = 17
	seeEscTotExtraInc = 1
	seeScaleDown      = 8000
	seeEscScaleDown   = 500

	excludedEscapeShift      = 2
	excludedEscapeInit       = 6
	excludedEscapeInc        = 4
	excludedEscapeExcludeInc = 3

	// deterministicMinLenInc and deterministicMinOrder gate how long a
	// run of unique successors must be observed before the deterministic
	// extender is trusted to short-circuit the normal context cascade.
	deterministicMinLenInc = 2
	deterministicMinOrder  = 24

	// deterministicRingSize is the number of Deterministic_Node records
	// kept in the ring buffer; once full, the oldest node is evicted to
	// make room for the newest, same as the original's fixed-size ring.
	deterministicRingSize = 1 << 18

	// intProbBits / intProbOne define the fixed-point probability scale
	// used throughout the model (SEE weights, escape estimates, and the
	// context-selection rating in chooseContext).
	intProbBits = 16
	intProbOne  = 1 << intProbBits
)
