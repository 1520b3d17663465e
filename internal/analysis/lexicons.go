package analysis

import "regexp"

// Word lists and pattern sets backing the sentiment, sensitivity, language
// and name-filtering heuristics. Lookups are lowercase.

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true,
	"wonderful": true, "fantastic": true, "outstanding": true, "superb": true,
	"happy": true, "pleased": true, "delighted": true, "thrilled": true,
	"excited": true, "love": true, "best": true, "better": true,
	"success": true, "successful": true, "win": true, "winning": true,
	"achieve": true, "achieved": true, "accomplished": true, "improve": true,
	"improved": true, "improvement": true, "benefit": true, "beneficial": true,
	"positive": true, "perfect": true, "strong": true, "growth": true,
	"gain": true, "profit": true, "opportunity": true, "advantage": true,
	"effective": true, "efficient": true, "reliable": true, "trusted": true,
	"impressive": true, "remarkable": true, "valuable": true, "helpful": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "horrible": true, "awful": true,
	"poor": true, "worst": true, "worse": true, "fail": true,
	"failed": true, "failure": true, "problem": true, "problems": true,
	"issue": true, "issues": true, "error": true, "errors": true,
	"sad": true, "unhappy": true, "angry": true, "upset": true,
	"disappointed": true, "disappointing": true, "frustrating": true, "frustrated": true,
	"hate": true, "dislike": true, "loss": true, "lose": true,
	"losing": true, "decline": true, "decrease": true, "risk": true,
	"danger": true, "dangerous": true, "threat": true, "concern": true,
	"concerned": true, "worried": true, "worry": true, "difficult": true,
	"negative": true, "weak": true, "broken": true, "damage": true,
	"unacceptable": true, "defect": true, "defective": true, "crisis": true,
}

// emotionLexicons tags words across eight fixed emotion categories.
var emotionLexicons = map[string]map[string]bool{
	"joy": {
		"happy": true, "joy": true, "delighted": true, "thrilled": true,
		"excited": true, "cheerful": true, "glad": true, "pleased": true,
		"wonderful": true, "love": true, "celebrate": true, "great": true,
	},
	"sadness": {
		"sad": true, "unhappy": true, "depressed": true, "miserable": true,
		"grief": true, "sorrow": true, "disappointed": true, "regret": true,
		"loss": true, "lonely": true, "gloomy": true,
	},
	"anger": {
		"angry": true, "furious": true, "outraged": true, "irritated": true,
		"annoyed": true, "hate": true, "resent": true, "hostile": true,
		"mad": true, "rage": true,
	},
	"fear": {
		"afraid": true, "scared": true, "frightened": true, "terrified": true,
		"anxious": true, "worried": true, "nervous": true, "panic": true,
		"threat": true, "danger": true, "dread": true,
	},
	"surprise": {
		"surprised": true, "astonished": true, "amazed": true, "shocked": true,
		"unexpected": true, "sudden": true, "startled": true, "stunning": true,
	},
	"disgust": {
		"disgusted": true, "revolting": true, "awful": true, "gross": true,
		"repulsive": true, "horrible": true, "nasty": true, "offensive": true,
	},
	"trust": {
		"trust": true, "reliable": true, "dependable": true, "honest": true,
		"loyal": true, "faithful": true, "confident": true, "secure": true,
		"assured": true, "proven": true,
	},
	"anticipation": {
		"anticipate": true, "expect": true, "await": true, "upcoming": true,
		"soon": true, "eager": true, "hopeful": true, "planned": true,
		"forecast": true, "prospect": true,
	},
}

// Sensitivity pattern sets. A document escalates from low to medium to
// high with the count of matches across all four sets.
var sensitivityPatterns = map[string][]*regexp.Regexp{
	"financial": {
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                     // SSN
		regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`),   // card number
		regexp.MustCompile(`(?i)\b(account\s+number|routing\s+number|bank\s+account|iban|swift)\b`),
		regexp.MustCompile(`(?i)\b(salary|compensation|net\s+worth|tax\s+return)\b`),
	},
	"personal": {
		regexp.MustCompile(`(?i)\b(date\s+of\s+birth|dob|passport\s+number|driver'?s\s+licen[sc]e)\b`),
		regexp.MustCompile(`(?i)\b(medical\s+record|diagnosis|prescription|health\s+insurance)\b`),
		regexp.MustCompile(`(?i)\b(home\s+address|personal\s+phone|maiden\s+name)\b`),
	},
	"legal": {
		regexp.MustCompile(`(?i)\b(confidential|proprietary|attorney.client|privileged)\b`),
		regexp.MustCompile(`(?i)\b(non.disclosure|nda|settlement\s+agreement|litigation)\b`),
		regexp.MustCompile(`(?i)\b(subpoena|deposition|plaintiff|defendant)\b`),
	},
	"negative": {
		regexp.MustCompile(`(?i)\b(termination|terminated|lawsuit|fraud|breach)\b`),
		regexp.MustCompile(`(?i)\b(investigation|misconduct|violation|penalty)\b`),
		regexp.MustCompile(`(?i)\b(bankruptcy|default|delinquent|foreclosure)\b`),
	},
}

// languageLexicons holds high-frequency function words per supported
// language for the overlap heuristic.
var languageLexicons = map[string]map[string]bool{
	"english": {
		"the": true, "and": true, "of": true, "to": true, "in": true,
		"is": true, "that": true, "it": true, "was": true, "for": true,
		"with": true, "as": true, "on": true, "are": true, "this": true,
		"be": true, "at": true, "have": true, "from": true, "not": true,
	},
	"spanish": {
		"el": true, "la": true, "de": true, "que": true, "y": true,
		"en": true, "un": true, "una": true, "es": true, "los": true,
		"se": true, "del": true, "las": true, "por": true, "con": true,
		"para": true, "como": true, "está": true, "pero": true, "más": true,
	},
	"french": {
		"le": true, "la": true, "de": true, "et": true, "les": true,
		"des": true, "est": true, "un": true, "une": true, "du": true,
		"dans": true, "qui": true, "que": true, "pour": true, "pas": true,
		"sur": true, "avec": true, "sont": true, "mais": true, "nous": true,
	},
	"german": {
		"der": true, "die": true, "und": true, "das": true, "ist": true,
		"von": true, "mit": true, "den": true, "für": true, "auf": true,
		"ein": true, "eine": true, "nicht": true, "sich": true, "auch": true,
		"dem": true, "werden": true, "aus": true, "bei": true, "sind": true,
	},
}

// nameStopwords rejects capitalized phrases that are sentence starters,
// months, days or other common false positives for person names.
var nameStopwords = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "those": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"street": true, "avenue": true, "road": true, "boulevard": true,
	"inc": true, "llc": true, "corp": true, "ltd": true, "company": true,
	"dear": true, "sincerely": true, "regards": true, "subject": true,
	"page": true, "chapter": true, "section": true, "table": true,
	"figure": true, "appendix": true, "new": true, "united": true,
	"north": true, "south": true, "east": true, "west": true,
}
