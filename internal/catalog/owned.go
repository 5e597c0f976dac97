package catalog

// OwnedSet holds identifiers the user already has. It only ever grows
// within a process lifetime; union is idempotent.
type OwnedSet map[string]struct{}

func NewOwnedSet(ids ...string) OwnedSet {
	s := make(OwnedSet, len(ids))
	s.Add(ids...)

	return s
}

func (s OwnedSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s OwnedSet) Contains(id string) bool {
	_, ok := s[id]

	return ok
}

func (s OwnedSet) Len() int {
	return len(s)
}
