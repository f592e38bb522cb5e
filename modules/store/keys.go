package store

// Key layout. Logical namespaces are colon-joined; hashes hold entity
// fields, streams hold append-only logs.
//
//	user:<id>                hash  {name, created}
//	user:<id>:events         stream, informational
//	slugs                    hash  slug -> room id
//	room:<id>                hash  {slug, owner, created}
//	room:<id>:messages       stream of join/leave/chat entries
//	room:<id>:connections    hash  user id -> connection id (occupancy map)
//	connection:<id>          hash  {room, owner}
//	connection:<id>:signal   stream of ice/sdp payloads

// SlugsKey is the global slug -> room id map.
const SlugsKey = "slugs"

func UserKey(id string) string { return "user:" + id }

func UserEventsKey(id string) string { return "user:" + id + ":events" }

func RoomKey(id string) string { return "room:" + id }

func RoomMessagesKey(id string) string { return "room:" + id + ":messages" }

// RoomConnectionsKey is the room's occupancy map, the single source of truth
// for who is in the room.
func RoomConnectionsKey(id string) string { return "room:" + id + ":connections" }

func ConnectionKey(id string) string { return "connection:" + id }

func ConnectionSignalKey(id string) string { return "connection:" + id + ":signal" }
