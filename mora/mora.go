// Package mora is the fixed table of Japanese mora spellings and their
// (consonant, vowel) phoneme decomposition. It backs both the kana-notation
// parser's longest-match lookup and the label builder's text normalization.
package mora

// Entry is one row of the mora dictionary: a kana spelling and its phoneme
// decomposition. Consonant is "" for a bare-vowel mora.
type Entry struct {
	Kana      string
	Consonant string
	Vowel     string
}

// table is transcribed from the canonical mora-to-phoneme mapping, ordered
// the same way (most specific consonant clusters first; this order doesn't
// matter for lookup, only for Mora2Text's first-match behavior on entries
// that could otherwise collide, which none do here).
var table = []Entry{
	{"ヴォ", "v", "o"},
	{"ヴェ", "v", "e"},
	{"ヴィ", "v", "i"},
	{"ヴァ", "v", "a"},
	{"ヴ", "v", "u"},
	{"ン", "", "N"},
	{"ワ", "w", "a"},
	{"ロ", "r", "o"},
	{"レ", "r", "e"},
	{"ル", "r", "u"},
	{"リョ", "ry", "o"},
	{"リュ", "ry", "u"},
	{"リャ", "ry", "a"},
	{"リェ", "ry", "e"},
	{"リ", "r", "i"},
	{"ラ", "r", "a"},
	{"ヨ", "y", "o"},
	{"ユ", "y", "u"},
	{"ヤ", "y", "a"},
	{"モ", "m", "o"},
	{"メ", "m", "e"},
	{"ム", "m", "u"},
	{"ミョ", "my", "o"},
	{"ミュ", "my", "u"},
	{"ミャ", "my", "a"},
	{"ミェ", "my", "e"},
	{"ミ", "m", "i"},
	{"マ", "m", "a"},
	{"ポ", "p", "o"},
	{"ボ", "b", "o"},
	{"ホ", "h", "o"},
	{"ペ", "p", "e"},
	{"ベ", "b", "e"},
	{"ヘ", "h", "e"},
	{"プ", "p", "u"},
	{"ブ", "b", "u"},
	{"フォ", "f", "o"},
	{"フェ", "f", "e"},
	{"フィ", "f", "i"},
	{"ファ", "f", "a"},
	{"フ", "f", "u"},
	{"ピョ", "py", "o"},
	{"ピュ", "py", "u"},
	{"ピャ", "py", "a"},
	{"ピェ", "py", "e"},
	{"ピ", "p", "i"},
	{"ビョ", "by", "o"},
	{"ビュ", "by", "u"},
	{"ビャ", "by", "a"},
	{"ビェ", "by", "e"},
	{"ビ", "b", "i"},
	{"ヒョ", "hy", "o"},
	{"ヒュ", "hy", "u"},
	{"ヒャ", "hy", "a"},
	{"ヒェ", "hy", "e"},
	{"ヒ", "h", "i"},
	{"パ", "p", "a"},
	{"バ", "b", "a"},
	{"ハ", "h", "a"},
	{"ノ", "n", "o"},
	{"ネ", "n", "e"},
	{"ヌ", "n", "u"},
	{"ニョ", "ny", "o"},
	{"ニュ", "ny", "u"},
	{"ニャ", "ny", "a"},
	{"ニェ", "ny", "e"},
	{"ニ", "n", "i"},
	{"ナ", "n", "a"},
	{"ドゥ", "d", "u"},
	{"ド", "d", "o"},
	{"トゥ", "t", "u"},
	{"ト", "t", "o"},
	{"デョ", "dy", "o"},
	{"デュ", "dy", "u"},
	{"デャ", "dy", "a"},
	{"ディ", "d", "i"},
	{"デ", "d", "e"},
	{"テョ", "ty", "o"},
	{"テュ", "ty", "u"},
	{"テャ", "ty", "a"},
	{"ティ", "t", "i"},
	{"テ", "t", "e"},
	{"ツォ", "ts", "o"},
	{"ツェ", "ts", "e"},
	{"ツィ", "ts", "i"},
	{"ツァ", "ts", "a"},
	{"ツ", "ts", "u"},
	{"ッ", "", "cl"},
	{"チョ", "ch", "o"},
	{"チュ", "ch", "u"},
	{"チャ", "ch", "a"},
	{"チェ", "ch", "e"},
	{"チ", "ch", "i"},
	{"ダ", "d", "a"},
	{"タ", "t", "a"},
	{"ゾ", "z", "o"},
	{"ソ", "s", "o"},
	{"ゼ", "z", "e"},
	{"セ", "s", "e"},
	{"ズィ", "z", "i"},
	{"ズ", "z", "u"},
	{"スィ", "s", "i"},
	{"ス", "s", "u"},
	{"ジョ", "j", "o"},
	{"ジュ", "j", "u"},
	{"ジャ", "j", "a"},
	{"ジェ", "j", "e"},
	{"ジ", "j", "i"},
	{"ショ", "sh", "o"},
	{"シュ", "sh", "u"},
	{"シャ", "sh", "a"},
	{"シェ", "sh", "e"},
	{"シ", "sh", "i"},
	{"ザ", "z", "a"},
	{"サ", "s", "a"},
	{"ゴ", "g", "o"},
	{"コ", "k", "o"},
	{"ゲ", "g", "e"},
	{"ケ", "k", "e"},
	{"グヮ", "gw", "a"},
	{"グ", "g", "u"},
	{"クヮ", "kw", "a"},
	{"ク", "k", "u"},
	{"ギョ", "gy", "o"},
	{"ギュ", "gy", "u"},
	{"ギャ", "gy", "a"},
	{"ギェ", "gy", "e"},
	{"ギ", "g", "i"},
	{"キョ", "ky", "o"},
	{"キュ", "ky", "u"},
	{"キャ", "ky", "a"},
	{"キェ", "ky", "e"},
	{"キ", "k", "i"},
	{"ガ", "g", "a"},
	{"カ", "k", "a"},
	{"オ", "", "o"},
	{"エ", "", "e"},
	{"ウォ", "w", "o"},
	{"ウェ", "w", "e"},
	{"ウィ", "w", "i"},
	{"ウ", "", "u"},
	{"イェ", "y", "e"},
	{"イ", "", "i"},
	{"ア", "", "a"},
}

// Table returns a copy of the dictionary in canonical order.
func Table() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}

var byKana map[string]Entry

func init() {
	byKana = make(map[string]Entry, len(table))
	for _, e := range table {
		byKana[e.Kana] = e
	}
}

// Lookup normalizes a kana spelling through the dictionary. The label
// builder does not call it; it canonicalizes mora text with Mora2Text.
func Lookup(kana string) (Entry, bool) {
	e, ok := byKana[kana]
	return e, ok
}

// Mora2Text reverses the dictionary: given a phoneme string (consonant
// concatenated with vowel, or a bare vowel when there is no consonant),
// returns the matching kana spelling. Falls back to returning the input
// unchanged when nothing matches, e.g. a devoiced (uppercase) vowel symbol
// that no dictionary row covers.
func Mora2Text(phonemes string) string {
	for _, e := range table {
		if e.Consonant+e.Vowel == phonemes {
			return e.Kana
		}
	}
	return phonemes
}
