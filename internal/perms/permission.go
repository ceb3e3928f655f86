package perms

import (
	"sort"
	"strings"
)

// Level is an Android protection level, reduced to the three buckets the
// analysis cares about.
type Level string

const (
	Normal    Level = "normal"
	Signature Level = "signature"
	Dangerous Level = "dangerous"
)

// Levels lists every level from least to most restrictive.
var Levels = []Level{Normal, Signature, Dangerous}

// ParseLevel maps a level name to a Level. Unknown names report false.
func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case Normal:
		return Normal, true
	case Signature:
		return Signature, true
	case Dangerous:
		return Dangerous, true
	}
	return "", false
}

// Classify derives a Level from a free-text protection description.
// "dangerous" is checked before "signature", so a description naming both is
// dangerous.
func Classify(desc string) Level {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "dangerous"):
		return Dangerous
	case strings.Contains(lower, "signature"):
		return Signature
	default:
		return Normal
	}
}

// Permission is a single Android permission or permission group.
type Permission struct {
	Name    string `json:"name"`
	Level   Level  `json:"protection_level"`
	IsGroup bool   `json:"is_group"`
}

// GroupNames are the permission groups Android treats as dangerous. The
// permission export does not include groups, so they are always added.
// https://developer.android.com/guide/topics/permissions/overview#perm-groups
var GroupNames = []string{
	"ACTIVITY_RECOGNITION",
	"CALENDAR",
	"CALL_LOG",
	"CAMERA",
	"CONTACTS",
	"LOCATION",
	"MICROPHONE",
	"PHONE",
	"SENSORS",
	"SMS",
	"STORAGE",
}

// GroupPermissions returns a fresh record for every entry in GroupNames.
func GroupPermissions() []Permission {
	out := make([]Permission, 0, len(GroupNames))
	for _, name := range GroupNames {
		out = append(out, Permission{Name: name, Level: Dangerous, IsGroup: true})
	}
	return out
}

// Set holds permissions keyed by name. Adding a permission whose name is
// already present replaces the earlier record.
type Set struct {
	byName map[string]Permission
}

func NewSet() *Set {
	return &Set{byName: make(map[string]Permission)}
}

// Add inserts p, reporting whether it replaced an existing record.
func (s *Set) Add(p Permission) bool {
	_, replaced := s.byName[p.Name]
	s.byName[p.Name] = p
	return replaced
}

func (s *Set) Get(name string) (Permission, bool) {
	p, ok := s.byName[name]
	return p, ok
}

func (s *Set) Len() int {
	return len(s.byName)
}

// Sorted returns every permission ordered by name.
func (s *Set) Sorted() []Permission {
	out := make([]Permission, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Filter returns the permissions at level, ordered by name.
func (s *Set) Filter(level Level) []Permission {
	var out []Permission
	for _, p := range s.Sorted() {
		if p.Level == level {
			out = append(out, p)
		}
	}
	return out
}

// Groups returns the group permissions, ordered by name.
func (s *Set) Groups() []Permission {
	var out []Permission
	for _, p := range s.Sorted() {
		if p.IsGroup {
			out = append(out, p)
		}
	}
	return out
}

// CountByLevel tallies permissions per level.
func (s *Set) CountByLevel() map[Level]int {
	counts := make(map[Level]int, len(Levels))
	for _, p := range s.byName {
		counts[p.Level]++
	}
	return counts
}

// SetOf builds a Set from ps; later entries win on name collisions.
func SetOf(ps []Permission) *Set {
	s := NewSet()
	for _, p := range ps {
		s.Add(p)
	}
	return s
}
