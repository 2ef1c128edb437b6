package rating

// longestPrefix walks the prefixes of number from longest to shortest and
// returns the first one contains accepts. Ties between table keys of equal
// length cannot happen here: the candidates are generated in strictly
// decreasing length, so the longest present key always wins.
func longestPrefix(number string, contains func(string) bool) (string, bool) {
	for i := len(number); i > 0; i-- {
		if p := number[:i]; contains(p) {
			return p, true
		}
	}
	return "", false
}

// MatchCategoryPrefix resolves the longest matching prefix in a category
// reference table (prefix -> label).
func MatchCategoryPrefix(number string, table map[string]string) (string, bool) {
	return longestPrefix(number, func(p string) bool {
		_, ok := table[p]
		return ok
	})
}
