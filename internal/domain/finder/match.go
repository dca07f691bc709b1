package finder

import "strings"

// SourceHost is the game-hosting domain every source URL must contain.
const SourceHost = "cloud.onlinegames.io"

// sourceMarkers are path fragments of which at least one must appear.
var sourceMarkers = []string{"index-og.html", "unity", "games"}

// IsGameSource reports whether url is a game source frame. Matching is
// case-sensitive substring containment anywhere in the URL.
func IsGameSource(url string) bool {
	if !strings.Contains(url, SourceHost) {
		return false
	}
	for _, marker := range sourceMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// FirstMatch returns the URL of the first frame that is a game source,
// along with how many frames were inspected to find it.
func FirstMatch(frames []Frame) (source string, inspected int) {
	for i, frame := range frames {
		if frame == nil {
			continue
		}
		if u := frame.URL(); IsGameSource(u) {
			return u, i + 1
		}
	}
	return "", len(frames)
}
