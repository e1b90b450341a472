package events

// Note Event Types
const (
	NoteCreated           = "NOTE_CREATED"
	NoteUpdated           = "NOTE_UPDATED"
	NoteDeleted           = "NOTE_DELETED"
	NoteVisibilityChanged = "NOTE_VISIBILITY_CHANGED"
)

// Group Event Types
const (
	GroupCreated  = "GROUP_CREATED"
	GroupDeleted  = "GROUP_DELETED"
	MemberAdded   = "MEMBER_ADDED"
	MemberRemoved = "MEMBER_REMOVED"
)

// Kafka Topics
const (
	NoteActivityTopic  = "note.activity"
	GroupActivityTopic = "group.activity"
)
