package utils

import "strings"

// NormalizeSkills trims every entry, drops blanks and removes duplicates
// (case-insensitive), keeping the first spelling seen. The result is never nil.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SplitSkills parses a comma separated list such as "Guitar, Chess".
func SplitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeSkills(strings.Split(raw, ","))
}
