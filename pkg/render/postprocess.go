package render

import "strings"

var bracketStripper = strings.NewReplacer(
	"(", "", ")", "",
	"[", "", "]", "",
	"{", "", "}", "",
)

// Earlier pairs win at a given position, so multi-character operators must
// precede their single-character prefixes. "<>" and "!=" are spelled as a
// whole; left to the single-character rules they would read "smaller
// thangreater than" and "!equal".
var symbolSpeller = strings.NewReplacer(
	"<>", "not equal",
	"!=", "not equal",
	">=", "greater than or equal",
	"<=", "smaller than or equal",
	"=", "equal",
	">", "greater than",
	"<", "smaller than",
)

// PostProcess lower-cases s, drops bracket characters and spells out
// comparison operators.
func PostProcess(s string) string {
	return SpellOperators(bracketStripper.Replace(strings.ToLower(s)))
}

// SpellOperators replaces comparison symbols with words. It is idempotent.
func SpellOperators(s string) string {
	return symbolSpeller.Replace(s)
}
