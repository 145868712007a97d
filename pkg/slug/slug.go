package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// dotless maps letters that do not decompose into an ASCII base plus a
// combining mark.
var dotless = strings.NewReplacer("ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "đ", "d", "ł", "l")

// Generate turns a category or product name into a URL-safe slug:
//
//	"Men's Kurta"    -> "men-s-kurta"
//	"Çocuk Ürünleri" -> "cocuk-urunleri"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = dotless.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
