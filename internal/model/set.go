// internal/model/set.go
package model

// StringSet gives O(1) membership tests over the membership arrays stored
// on a campaign (openedBy, repliedBy, ...).
type StringSet map[string]struct{}

func NewStringSet(values ...string) StringSet {
    s := make(StringSet, len(values))
    for _, v := range values {
        s[v] = struct{}{}
    }
    return s
}

func (s StringSet) Has(v string) bool {
    _, ok := s[v]
    return ok
}

func (s StringSet) Add(v string) {
    s[v] = struct{}{}
}
