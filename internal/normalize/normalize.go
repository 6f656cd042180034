// Package normalize canonicalizes free-text street addresses so that
// comparisons tolerate real-world formatting noise: abbreviations, unit
// numbers, directional prefixes, and geocoder/OCR variance. The folding
// is intentionally aggressive; it trades some false-positive risk for
// much higher recall.
package normalize

import (
	"regexp"
	"strings"
)

// streetSynonyms folds common street-type words to canonical
// abbreviations. Applied on word boundaries after punctuation stripping.
var streetSynonyms = []struct {
	re  *regexp.Regexp
	abb string
}{
	{regexp.MustCompile(`\bstreet\b`), "st"},
	{regexp.MustCompile(`\bavenue\b`), "ave"},
	{regexp.MustCompile(`\broad\b`), "rd"},
	{regexp.MustCompile(`\bdrive\b`), "dr"},
	{regexp.MustCompile(`\blane\b`), "ln"},
	{regexp.MustCompile(`\bboulevard\b`), "blvd"},
	{regexp.MustCompile(`\bcourt\b`), "ct"},
	{regexp.MustCompile(`\bcircle\b`), "cir"},
	{regexp.MustCompile(`\bparkway\b`), "pkwy"},
	{regexp.MustCompile(`\bplace\b`), "pl"},
	{regexp.MustCompile(`\bsquare\b`), "sq"},
	{regexp.MustCompile(`\bterrace\b`), "ter"},
	{regexp.MustCompile(`\btrail\b`), "trl"},
}

var (
	reNonWord = regexp.MustCompile(`[^\w\s]`)
	reSpaces  = regexp.MustCompile(`\s+`)

	// directional token at the start of the street name, with or
	// without a leading house number
	reDirectional = regexp.MustCompile(`^(\d+\s+)?(north|south|east|west|n|s|e|w)\s+`)

	// trailing floor indicators like "4th floor"
	reTrailingFloor = regexp.MustCompile(`(\b\d+(st|nd|rd|th)?\s+)?(floor|fl)$`)

	// unit designator words; the unit value itself is kept so that
	// "suite 400" and "#400" collapse to the same key
	reUnitDesignator = regexp.MustCompile(`\b(apartment|apt|suite|ste|unit|bldg|building|room|rm)\b`)

	// ordinal suffix on the leading house number; requires a following
	// token so normalization stays idempotent on collapsed keys
	reHouseOrdinal = regexp.MustCompile(`^(\d+)(st|nd|rd|th)\s+`)
)

// Normalize canonicalizes an address into a comparison key. It is pure,
// deterministic, and idempotent. The resulting key contains no spaces.
func Normalize(address string) string {
	s := strings.ToLower(address)
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = reNonWord.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	s = reDirectional.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	for _, syn := range streetSynonyms {
		s = syn.re.ReplaceAllString(s, syn.abb)
	}

	s = reTrailingFloor.ReplaceAllString(s, "")
	s = reUnitDesignator.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))

	s = reHouseOrdinal.ReplaceAllString(s, "$1 ")

	return strings.ReplaceAll(s, " ", "")
}
