package messages

// CodecError is returned for wire bytes that cannot be decoded. It is never retryable.
type CodecError struct {
	Reason string
}

func (e *CodecError) Error() string {
	return "malformed record: " + e.Reason
}
