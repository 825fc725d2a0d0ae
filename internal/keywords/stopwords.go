package keywords

// stopWords is a compact English stop list.
var stopWords = toSet(`a about above after again against all almost also although always am among an and another any anyone anything are aren't around as at be became because become been before being below between both but by can cannot can't could couldn't did didn't do does doesn't doing don't done down during each either else enough even ever every few first for from further get gets getting give given go goes going got had hadn't has hasn't have haven't having he her here hers herself him himself his how however i if in into is isn't it it's its itself just keep last least less let like made make makes many may me might more most much must my myself need never new next no nor not now of off often on once one only or other others our ours ourselves out over own per perhaps put rather really same say says see seem seems several shall she should shouldn't since so some something still such take than that that's the their theirs them themselves then there there's these they this those though through thus to too toward under until up upon us use used using very via was wasn't way we well were weren't what what's when where whether which while who whom whose why will with within without won't would wouldn't yet you your yours yourself yourselves`)

func toSet(words string) map[string]struct{} {
	m := map[string]struct{}{}
	start := -1
	for i := 0; i <= len(words); i++ {
		if i == len(words) || words[i] == ' ' {
			if start >= 0 {
				m[words[start:i]] = struct{}{}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return m
}
