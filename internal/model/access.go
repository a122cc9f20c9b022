package model

// AccessLevel is a user's privilege level. Each level implies all lower ones.
type AccessLevel string

const (
	Author        AccessLevel = "Author"
	Editor        AccessLevel = "Editor"
	WebLogAdmin   AccessLevel = "WebLogAdmin"
	Administrator AccessLevel = "Administrator"
)

var accessLevelRank = map[AccessLevel]int{
	Author:        1,
	Editor:        2,
	WebLogAdmin:   3,
	Administrator: 4,
}

// HasAccess reports whether the level satisfies the required level.
// Unknown levels satisfy nothing.
func (l AccessLevel) HasAccess(required AccessLevel) bool {
	mine, ok := accessLevelRank[l]
	if !ok {
		return false
	}
	req, ok := accessLevelRank[required]
	if !ok {
		return false
	}
	return mine >= req
}
