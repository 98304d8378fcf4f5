package domain

import "strings"

// Room key namespaces. Direct rooms derive their key from the user pair;
// group rooms are addressed by group id.
const (
	chatPrefix  = "chat:"
	groupPrefix = "group:"
)

// idEscaper makes user ids safe to embed between key delimiters. '%' must be
// escaped first so unescaping stays unambiguous.
var idEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// RoomKey maps an unordered pair of user ids to the canonical direct-room
// identifier. It is pure and commutative: RoomKey(a, b) == RoomKey(b, a),
// and distinct unordered pairs never collide because ids are escaped before
// joining.
func RoomKey(a, b string) string {
	x, y := idEscaper.Replace(a), idEscaper.Replace(b)
	if y < x {
		x, y = y, x
	}
	return chatPrefix + x + ":" + y
}

// GroupRoomKey maps a group id to its room identifier.
func GroupRoomKey(groupID string) string {
	return groupPrefix + idEscaper.Replace(groupID)
}

// IsDirectRoom reports whether key addresses a 1:1 conversation.
func IsDirectRoom(key string) bool { return strings.HasPrefix(key, chatPrefix) }

// RoomHasUser reports whether key is a direct room with userID as one of its
// two parties. Group rooms never match.
func RoomHasUser(key, userID string) bool {
	if !IsDirectRoom(key) {
		return false
	}
	id := idEscaper.Replace(userID)
	rest := strings.TrimPrefix(key, chatPrefix)
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return false
	}
	return rest[:i] == id || rest[i+1:] == id
}
