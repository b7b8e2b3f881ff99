package types

// Entity kind names used by document links and change records to address
// rows of any table uniformly.
const (
	EntityProject  = "project"
	EntityEpic     = "epic"
	EntitySprint   = "sprint"
	EntityTask     = "task"
	EntityDocument = "document"
)

// validEntityKinds is the set of recognized entity kind names.
var validEntityKinds = map[string]bool{
	EntityProject:  true,
	EntityEpic:     true,
	EntitySprint:   true,
	EntityTask:     true,
	EntityDocument: true,
}

// ValidEntityKind reports whether kind names a known entity table.
func ValidEntityKind(kind string) bool {
	return validEntityKinds[kind]
}
