package room

import "fmt"

// Global is the single broadcast room every connected user joins.
const Global = "global"

// User returns the personal stream room for a user. Notifications and
// presence updates addressed to one user go here.
func User(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// Canonical returns the conversation room for an unordered user pair.
// Deterministic regardless of argument order.
func Canonical(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d:%d", a, b)
}

// ParsePair extracts the user pair from a conversation room id.
func ParsePair(roomID string) (int, int, error) {
	var a, b int
	if _, err := fmt.Sscanf(roomID, "dm:%d:%d", &a, &b); err != nil {
		return 0, 0, fmt.Errorf("not a conversation room: %s", roomID)
	}
	return a, b, nil
}

// Member reports whether a user belongs to a room. The global room admits
// everyone; personal and conversation rooms admit their owners only.
func Member(roomID string, userID int) bool {
	if roomID == Global {
		return true
	}
	if roomID == User(userID) {
		return true
	}
	a, b, err := ParsePair(roomID)
	if err != nil {
		return false
	}
	return userID == a || userID == b
}
