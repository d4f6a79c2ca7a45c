package extraction

import (
	"regexp"
	"strings"
)

var quoteReplacer = strings.NewReplacer(
	// single quotation marks and primes
	"‘", "'",
	"’", "'",
	"‚", "'",
	"‛", "'",
	"′", "'",
	"‵", "'",
	// double quotation marks and double primes
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
	"″", `"`,
	"‶", `"`,
)

var (
	trailingCommaObject = regexp.MustCompile(`,[\s,]*}`)
	trailingCommaArray  = regexp.MustCompile(`,[\s,]*]`)
)

// Sanitize repairs the near-JSON artifacts models tend to produce: typographic quotes and
// trailing commas before a closing brace or bracket. Applying it twice is the same as once.
func Sanitize(s string) string {
	s = quoteReplacer.Replace(s)
	s = trailingCommaObject.ReplaceAllString(s, "}")
	s = trailingCommaArray.ReplaceAllString(s, "]")
	return s
}
