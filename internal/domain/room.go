package domain

// RoomID is the opaque code clients join by. Rooms are created implicitly
// on first join and destroyed when their roster empties.
type RoomID string

type Room struct {
	ID RoomID
}
