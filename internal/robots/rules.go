package robots

import "strings"

// IsAllowed reports whether path (query included) may be fetched by
// userAgent. The group with the longest agent token contained in userAgent
// applies, "*" being the weakest match. Inside it the matching directive with
// the longest pattern wins and Allow wins ties. No match means allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return true
	}
	g := r.Groups[idx]
	best, allow := -1, true
	consider := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !matches(p, path) {
				continue
			}
			score := specificity(p)
			if score > best || (score == best && isAllow && !allow) {
				best, allow = score, isAllow
			}
		}
	}
	consider(g.Disallow, false)
	consider(g.Allow, true)
	return allow
}

func (r Rules) groupFor(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
	}
	return bestIdx
}

// matches applies a robots pattern anchored at the start of path. '*' matches
// any run of characters and a trailing '$' anchors the end.
func matches(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	if len(parts) == 1 {
		return !anchored || rest == ""
	}
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		if last && anchored {
			return strings.HasSuffix(rest, part)
		}
		j := strings.Index(rest, part)
		if j < 0 {
			return false
		}
		rest = rest[j+len(part):]
	}
	return true
}

func specificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}
