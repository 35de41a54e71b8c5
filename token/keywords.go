package token

// keywords maps a token's upper-cased text to its reserved-word type. An
// identifier is retagged Keyword when its upper-case form is found here;
// the token's Value is normalized to that upper-case form.
var keywords = map[string]Token{
	"CREATE":   CREATE,
	"INSERT":   INSERT,
	"SCAN":     SCAN,
	"DATABASE": DATABASE,
	"BUCKET":   BUCKET,
	"QUERIES":  QUERIES,
	"KEYS":     KEYS,
	"VALUES":   VALUES,
	"IF":       IF,
	"NOT":      NOT,
	"EXISTS":   EXISTS,
	"WITH":     WITH,
	"INTO":     INTO,
	"INSIDE":   INSIDE,
	"AND":      AND,
}

// Lookup returns the keyword token for an upper-cased identifier, and
// whether it is in fact a keyword.
func Lookup(upper string) (Token, bool) {
	t, ok := keywords[upper]
	return t, ok
}
