// Package textutil normalizes Persian text as it appears in TSETMC
// payloads: Arabic presentation forms folded to their Persian
// equivalents, zero-width non-joiners removed, whitespace collapsed.
package textutil

import "strings"

// TSETMC mixes Arabic and Persian codepoints for the same letters, so
// matching requires folding to the Persian forms first.
var arabicToPersian = strings.NewReplacer(
	"ي", "ی", // ي → ی
	"ى", "ی", // ى → ی
	"ك", "ک", // ك → ک
	"ة", "ه", // ة → ه
	"ؤ", "و", // ؤ → و
	"ئ", "ی", // ئ → ی
	"أ", "ا", // أ → ا
	"إ", "ا", // إ → ا
	"آ", "ا", // آ → ا
	"‌", " ", // ZWNJ → space
)

// Persian and Arabic-Indic digits folded to ASCII, thousands separators
// dropped, for numeric cells scraped out of HTML tables.
var digitFold = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	",", "", "٬", "",
)

// Digits folds localized digits to ASCII and strips thousands separators.
func Digits(s string) string {
	return strings.TrimSpace(digitFold.Replace(s))
}

// Clean normalizes Persian text for display and comparison.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = arabicToPersian.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeSymbol normalizes a ticker symbol for matching: folded like
// Clean, then stripped of all internal whitespace.
func NormalizeSymbol(symbol string) string {
	return strings.Join(strings.Fields(Clean(symbol)), "")
}
