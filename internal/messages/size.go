package messages

// ShouldBack decides whether a payload must be stored as a blob. Only the size is considered and a
// payload exactly maxByteSize long stays inline. Tombstones are never backed.
func ShouldBack(payload []byte, maxByteSize int) bool {
	if payload == nil {
		return false
	}

	return len(payload) > maxByteSize
}
