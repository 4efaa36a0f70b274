package entities

// Known setting keys, shared by the local key-value store and the remote
// settings table.
const (
	// SettingKeyLastClipBook holds the most recently clipped book, used to
	// pre-populate the add-clip flow. Overwritten on every successful clip
	// save; not versioned.
	SettingKeyLastClipBook = "last_clip_book"
)
