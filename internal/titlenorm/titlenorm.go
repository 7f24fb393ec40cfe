package titlenorm

import (
	"regexp"
	"strings"
)

// Cosmetic modifiers change the audio but not the lyrics. They wreck provider
// search relevance, so they are stripped before querying.
var (
	modifierTokens = `(?:slowed(?:[\s+&-]*down)?|sped[\s-]*up|speed[\s-]*up|nightcore|reverb|8d(?:\s*audio)?)`

	// "(slowed + reverb)", "[Nightcore Version]" and similar bracketed variants.
	reBracketed = regexp.MustCompile(`(?i)\s*[(\[][^)\]]*` + modifierTokens + `[^)\]]*[)\]]`)

	// "Toxic - Slowed + Reverb", "Toxic | sped up" style trailing segments.
	reTrailing = regexp.MustCompile(`(?i)\s*[-–|~]\s*(?:` + modifierTokens + `[\s+&,]*)+\s*$`)

	// Bare modifier words left anywhere in the title.
	reBare = regexp.MustCompile(`(?i)(?:^|\s)` + modifierTokens + `(?:$|\s)`)

	reSpaces    = regexp.MustCompile(`\s{2,}`)
	reSeparator = regexp.MustCompile(`\s*[-–|~+&]\s*$`)
)

// Normalize strips cosmetic title modifiers and reports whether anything was
// removed. A modified title means duration-based provider matching must be
// disabled downstream.
func Normalize(title string) (string, bool) {
	cleaned := title
	cleaned = reBracketed.ReplaceAllString(cleaned, "")
	cleaned = reTrailing.ReplaceAllString(cleaned, "")
	// Adjacent bare modifiers share their separating space, so a single
	// replacement pass can leave one behind.
	for {
		next := reBare.ReplaceAllString(cleaned, " ")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	// A stripped trailing segment can leave a dangling "-" or "+".
	for {
		trimmed := strings.TrimSpace(reSeparator.ReplaceAllString(cleaned, ""))
		if trimmed == cleaned {
			break
		}
		cleaned = trimmed
	}

	if cleaned == "" {
		// Titles made of nothing but modifiers stay as-is; an empty query
		// would be worse than a noisy one.
		return title, false
	}

	return cleaned, cleaned != title
}
