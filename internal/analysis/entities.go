package analysis

import (
	"regexp"
	"strings"
)

// Entity pattern sets. Each category is matched independently and
// de-duplicated with first-occurrence ordering.
var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$[\d,]+(?:\.\d{1,2})?`),
		regexp.MustCompile(`\b\d+(?:\.\d+)?%`),
	}

	namePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)

	organizationPattern = regexp.MustCompile(`\b[A-Z][A-Za-z&.]*(?:\s+(?:[A-Z][A-Za-z&.]*|of|and|the)){0,5}\s+(?:Incorporated|Inc|LLC|Corporation|Corp|Ltd|Company|Co|Group|Partners|Associates|Foundation)\b\.?`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}-\d{4}`),
		regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{4}\b`),
		regexp.MustCompile(`\+1[\s.-]?\d{3}[\s.-]?\d{3}[\s.-]?\d{4}\b`),
	}

	// The optional period belongs to abbreviation suffixes only; a
	// sentence-final period after a full-word suffix stays out of the match.
	addressPattern = regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:(?:Street|Avenue|Road|Boulevard|Lane|Drive|Court|Place|Way)\b|(?:St|Ave|Rd|Blvd|Ln|Dr|Ct|Pl)\b\.?)`)

	urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	creditCardPattern = regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b|\b\d{16}\b`)

	ipAddressPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	dateLikeToken = regexp.MustCompile(`\d`)
)

// ExtractEntities runs every entity pattern set over the text and returns
// the bundle. The function is idempotent: identical input yields identical,
// order-stable lists with no duplicates.
func ExtractEntities(text string) EntityBundle {
	bundle := EntityBundle{
		EntityDates:         matchAll(text, datePatterns...),
		EntityAmounts:       matchAll(text, amountPatterns...),
		EntityNames:         extractNames(text),
		EntityOrganizations: matchOrganizations(text),
		EntityEmails:        matchAll(text, emailPattern),
		EntityPhoneNumbers:  matchAll(text, phonePatterns...),
		EntityAddresses:     matchAll(text, addressPattern),
		EntityURLs:          matchAll(text, urlPattern),
		EntitySSNs:          matchAll(text, ssnPattern),
		EntityCreditCards:   matchAll(text, creditCardPattern),
		EntityIPAddresses:   matchAll(text, ipAddressPattern),
	}
	return bundle
}

// matchAll collects matches from one or more patterns in first-occurrence
// order with exact-match de-duplication.
func matchAll(text string, patterns ...*regexp.Regexp) []string {
	type hit struct {
		value string
		pos   int
	}
	var hits []hit
	seen := make(map[string]bool)

	for _, p := range patterns {
		locs := p.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			value := text[loc[0]:loc[1]]
			if seen[value] {
				continue
			}
			seen[value] = true
			hits = append(hits, hit{value: value, pos: loc[0]})
		}
	}

	// Multiple patterns scan the text independently; restore document
	// order across them.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var out []string
	for _, h := range hits {
		out = append(out, h.value)
	}
	return out
}

// extractNames finds capitalized multi-word candidates and filters out
// stopword-led phrases and tokens that look like dates or amounts.
func extractNames(text string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, candidate := range namePattern.FindAllString(text, -1) {
		if seen[candidate] {
			continue
		}
		if !plausibleName(candidate) {
			continue
		}
		seen[candidate] = true
		out = append(out, candidate)
	}
	return out
}

// plausibleName rejects candidates whose words hit the stopword list or
// that contain digits.
func plausibleName(candidate string) bool {
	if dateLikeToken.MatchString(candidate) {
		return false
	}
	for _, word := range strings.Fields(candidate) {
		if nameStopwords[strings.ToLower(word)] {
			return false
		}
	}
	return true
}

// matchOrganizations collects organization candidates, trimming stray
// surrounding punctuation.
func matchOrganizations(text string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, m := range organizationPattern.FindAllString(text, -1) {
		m = strings.TrimSpace(strings.Trim(m, ".,"))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
