package scraper

// seenSet de-duplicates posts across scroll rounds, keyed by normalised
// status URL or, for posts without a link, by author and text.
type seenSet struct {
	keys map[string]bool
}

func newSeenSet() *seenSet {
	return &seenSet{keys: make(map[string]bool)}
}

// Add records p and reports whether it was new.
func (s *seenSet) Add(p Post) bool {
	key := p.URL
	if key != "" {
		key = normalizeURL(key)
	}
	if key == "" {
		if p.Text == "" {
			return false
		}
		key = p.Author + "\x00" + p.Text
	}
	if s.keys[key] {
		return false
	}
	s.keys[key] = true
	return true
}

// Len returns the number of distinct posts recorded.
func (s *seenSet) Len() int {
	return len(s.keys)
}
