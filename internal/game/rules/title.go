package rules

import (
	"math"
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var placeholder = regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)

var titlePrinter = message.NewPrinter(language.SimplifiedChinese)

// ResolveTitle substitutes every [key] in title with the value of key in
// mods, rounded to one decimal. Keys absent from mods render as 0.
//
// ResolveTitle is display only and never feeds back into evaluation.
func ResolveTitle(title string, mods ModifierMap) string {
	return placeholder.ReplaceAllStringFunc(title, func(tok string) string {
		key := placeholder.FindStringSubmatch(tok)[1]
		v := math.Round(mods[key]*10) / 10
		return titlePrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
	})
}
