package domain

import "strconv"

// RoomID identifies a broadcast channel. Every shopping list has exactly one
// room, keyed by the list's ID.
type RoomID uint

func ListRoom(listID uint) RoomID {
	return RoomID(listID)
}

func (r RoomID) ListID() uint {
	return uint(r)
}

func (r RoomID) String() string {
	return "list-" + strconv.FormatUint(uint64(r), 10)
}
