package event

// Playback events. Emitted by the scheduler, delivered next frame.

type ObjectShown struct {
	ID   int
	Kind string
	Key  string
}

type ObjectDisposed struct {
	ID int
}

type LoadFailed struct {
	ID  int // 0 for prepared resources not bound to an object
	Key string
	Err error
}

type StateChanged struct {
	From string
	To   string
}

type LineShown struct {
	TextID  int
	CharaID int
	Name    string
	Text    string
}
