package lexer

import (
	"strconv"
	"strings"

	"github.com/bite-lang/bite/internal/token"
)

// classifyNumber converts a cleaned numeric lexeme (underscores already
// stripped) into its token.Kind plus the decoded value. This routine is a
// pure function from literal lexeme to value — it does not need to be
// exhaustive over every possible malformed literal, since the lexer only
// calls it on lexemes its own scanning loop already shaped into one of the
// four numeral forms (decimal/hex/binary/octal, optionally floating).
func classifyNumber(lexeme string) (kind token.Kind, ival int64, fval float64) {
	lower := strings.ToLower(lexeme)

	switch {
	case strings.HasPrefix(lower, "0x"):
		if i := strings.IndexAny(lower, ".p"); i >= 0 {
			f, err := strconv.ParseFloat(lexeme, 64)
			if err == nil {
				return token.FLOAT, 0, f
			}
		}
		n, _ := strconv.ParseInt(lower[2:], 16, 64)
		return token.INT, n, 0

	case strings.HasPrefix(lower, "0b"):
		n, _ := strconv.ParseInt(lower[2:], 2, 64)
		return token.INT, n, 0

	case strings.ContainsAny(lower, ".e"):
		f, _ := strconv.ParseFloat(lexeme, 64)
		return token.FLOAT, 0, f

	case len(lexeme) > 1 && lexeme[0] == '0':
		n, err := strconv.ParseInt(lexeme, 8, 64)
		if err != nil {
			n, _ = strconv.ParseInt(lexeme, 10, 64)
		}
		return token.INT, n, 0

	default:
		n, _ := strconv.ParseInt(lexeme, 10, 64)
		return token.INT, n, 0
	}
}
