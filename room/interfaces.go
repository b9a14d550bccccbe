package room

// Locker serializes actions per room. Manager implements it; the game service
// depends on this interface so it can run without a manager in tests.
type Locker interface {
	Lock(roomID string) (unlock func())
}

var _ Locker = (*Manager)(nil)
