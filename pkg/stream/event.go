package stream

// EventKind identifies a structural event.
type EventKind uint8

const (
	// EventBeginNode opens a node; Name holds the node name.
	EventBeginNode EventKind = iota + 1
	// EventEndNode closes the innermost open node.
	EventEndNode
	// EventProp carries one property of the innermost open node.
	EventProp
	// EventEnd marks the end of the structure block.
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventBeginNode:
		return "BeginNode"
	case EventEndNode:
		return "EndNode"
	case EventProp:
		return "Prop"
	case EventEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// Event is one decoded structure block token.
type Event struct {
	Kind EventKind
	// Name is the node name for EventBeginNode and the property name for EventProp.
	Name []byte
	// Value is the raw property value for EventProp.
	Value []byte
	// Offset is the blob offset of the token that produced the event.
	Offset int
}
