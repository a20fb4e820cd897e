// Package phoneme is the fixed phoneme alphabet shared by the label
// builder, the pitch/duration models, and the decoder. Ids are part of the
// external interface: model tensors index into them directly.
package phoneme

import (
	"fmt"
	"strings"
)

// Error reports a phoneme symbol that is not in the alphabet. IDOf returns
// it for any such symbol; MustIDOf panics with it.
type Error struct {
	Symbol string
}

func (e *Error) Error() string {
	return fmt.Sprintf("phoneme: unknown symbol %q", e.Symbol)
}

// table is the closed 45-symbol alphabet, pau first at id 0.
var table = []string{
	"pau", "A", "E", "I", "N", "O", "U", "a", "b",
	"by", "ch", "cl", "d", "dy", "e", "f", "g", "gw",
	"gy", "h", "hy", "i", "j", "k", "kw", "ky", "m",
	"my", "n", "ny", "o", "p", "py", "r", "ry", "s",
	"sh", "t", "ts", "ty", "u", "v", "w", "y", "z",
}

var ids map[string]int

func init() {
	ids = make(map[string]int, len(table))
	for i, s := range table {
		ids[s] = i
	}
}

// Pause is the symbol reserved for id 0, used as silence and as padding
// around utterance boundaries and decoder input.
const Pause = "pau"

var vowelOrPause = set("a", "i", "u", "e", "o", "N", "A", "I", "U", "E", "O", "cl", "pau")

var unvoicedLike = set("A", "I", "U", "E", "O", "cl", "pau")

func set(symbols ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		m[s] = struct{}{}
	}
	return m
}

// NumPhonemes returns the alphabet size (45).
func NumPhonemes() int {
	return len(table)
}

// IDOf returns the integer id for symbol, or an error if symbol is not in
// the alphabet.
func IDOf(symbol string) (int, error) {
	id, ok := ids[symbol]
	if !ok {
		return 0, &Error{Symbol: symbol}
	}
	return id, nil
}

// MustIDOf is IDOf for callers that have already validated symbol, e.g.
// internal table construction.
func MustIDOf(symbol string) int {
	id, err := IDOf(symbol)
	if err != nil {
		panic(err)
	}
	return id
}

// SymbolOf returns the symbol for id, or "" if id is out of range.
func SymbolOf(id int) string {
	if id < 0 || id >= len(table) {
		return ""
	}
	return table[id]
}

// IsVowelOrPause reports whether symbol is in {a,i,u,e,o,N,A,I,U,E,O,cl,pau}.
func IsVowelOrPause(symbol string) bool {
	_, ok := vowelOrPause[symbol]
	return ok
}

// IsUnvoicedLike reports whether symbol is in {A,I,U,E,O,cl,pau}, the set
// whose pitch must be zeroed by the pitch-replacement step.
func IsUnvoicedLike(symbol string) bool {
	_, ok := unvoicedLike[symbol]
	return ok
}

// NormalizeBoundary rewrites a phoneme symbol containing "sil" to "pau".
// Applied to the first and last phoneme of an utterance so label-extractor
// output lines up with the model vocabulary.
func NormalizeBoundary(symbol string) string {
	if strings.Contains(symbol, "sil") {
		return Pause
	}
	return symbol
}
