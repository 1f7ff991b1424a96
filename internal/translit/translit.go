// Package translit provides the "external transliterator" the deinflector
// consults: a pure mapping from arbitrary text to its hiragana and
// katakana forms. This is explicitly a non-goal of the core dictionary
// spec (romanization/kana conversion is an external collaborator's
// concern); this package is a compact, self-contained implementation of
// that contract so the rest of the module and its tests can run without
// depending on an external service.
package translit

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Transliterator maps arbitrary text to its hiragana and katakana forms.
// Both methods are total and pure: they never fail and never block.
type Transliterator interface {
	ToHiragana(s string) string
	ToKatakana(s string) string
}

// Default is the package-level Transliterator used by the deinflector
// unless a caller supplies its own.
var Default Transliterator = kanaTransliterator{}

type kanaTransliterator struct{}

// katakanaStart/katakanaEnd bound the full-width katakana block this
// converter treats as convertible to hiragana by a fixed code-point
// offset. Matches the range japaniel-readerer's dictionary.ToHiragana
// uses.
const (
	katakanaStart = 0x30A1
	katakanaEnd   = 0x30F6
	hiraganaStart = 0x3041
	hiraganaEnd   = 0x3096
	kanaOffset    = 0x60
)

// ToHiragana converts NFC-normalized input to hiragana: any full-width
// katakana it finds is shifted down by the fixed code-point offset
// separating the two blocks; romaji runs are converted via the romaji
// table; everything else (kanji, punctuation, ASCII it can't parse as
// romaji) passes through unchanged.
func (kanaTransliterator) ToHiragana(s string) string {
	s = norm.NFC.String(s)
	s = romajiToHiragana(s)
	runes := []rune(s)
	for i, r := range runes {
		if r >= katakanaStart && r <= katakanaEnd {
			runes[i] = r - kanaOffset
		}
	}
	return string(runes)
}

// ToKatakana converts NFC-normalized input to katakana: hiragana is
// shifted up by the same fixed offset; romaji is first converted to
// hiragana via the romaji table, then shifted up.
func (kanaTransliterator) ToKatakana(s string) string {
	s = norm.NFC.String(s)
	s = romajiToHiragana(s)
	runes := []rune(s)
	for i, r := range runes {
		if r >= hiraganaStart && r <= hiraganaEnd {
			runes[i] = r + kanaOffset
		}
	}
	return string(runes)
}

// romajiToHiragana greedily rewrites ASCII-letter runs using the romaji
// table, longest syllable first. Characters outside a romaji-convertible
// run (already kana, kanji, punctuation, digits) are copied through
// unchanged. Not a full IME: long-vowel macrons and edge-case particle
// spellings ("wa"/"ha" ambiguity, "e"/"he") are not special-cased.
func romajiToHiragana(s string) string {
	if !strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return s
	}

	var b strings.Builder
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; {
		if !isRomajiRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		// Sokuon: a doubled consonant (not "n") becomes a small tsu and the
		// first consonant is consumed without output.
		if i+1 < n && runes[i] == runes[i+1] && runes[i] != 'n' && isConsonant(runes[i]) {
			b.WriteRune('っ')
			i++
			continue
		}

		matched := false
		for length := maxRomajiLen; length >= 1; length-- {
			if i+length > n {
				continue
			}
			candidate := strings.ToLower(string(runes[i : i+length]))
			if kana, ok := romajiTable[candidate]; ok {
				b.WriteString(kana)
				i += length
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		// Trailing "n" not part of a longer syllable: moraic ん.
		if runes[i] == 'n' || runes[i] == 'N' {
			b.WriteRune('ん')
			i++
			continue
		}

		// Unrecognized romaji rune: copy through unchanged.
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func isRomajiRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isConsonant(r rune) bool {
	switch r {
	case 'a', 'i', 'u', 'e', 'o', 'A', 'I', 'U', 'E', 'O':
		return false
	default:
		return true
	}
}

const maxRomajiLen = 3

// romajiTable maps Hepburn-style romaji syllables to hiragana. Not
// exhaustive (no macrons, no archaic kana), but enough to cover standard
// verb/adjective conjugation surfaces the deinflector needs to recognize.
var romajiTable = buildRomajiTable()

func buildRomajiTable() map[string]string {
	t := map[string]string{
		"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",
		"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
		"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
		"sa": "さ", "shi": "し", "su": "す", "se": "せ", "so": "そ",
		"za": "ざ", "ji": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
		"ta": "た", "chi": "ち", "tsu": "つ", "te": "て", "to": "と",
		"da": "だ", "di": "ぢ", "du": "づ", "de": "で", "do": "ど",
		"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
		"ha": "は", "hi": "ひ", "fu": "ふ", "he": "へ", "ho": "ほ",
		"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
		"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",
		"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
		"ya": "や", "yu": "ゆ", "yo": "よ",
		"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
		"wa": "わ", "wo": "を",
		"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
		"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",
		"sha": "しゃ", "shu": "しゅ", "sho": "しょ",
		"ja": "じゃ", "ju": "じゅ", "jo": "じょ",
		"cha": "ちゃ", "chu": "ちゅ", "cho": "ちょ",
		"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",
		"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
		"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
		"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",
		"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
		"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	}
	return t
}
