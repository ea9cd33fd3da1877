package hefty

import "github.com/vinujohn/hefty-blob/internal/messages"

// ReferenceURI determines if wire bytes hold a reference and returns the URI of the blob.
// This function is provided to developers whose consumers read blobs directly from the storage
// backend without using a Deserializer, for example a function triggered by the queue.
func ReferenceURI(data []byte) (string, bool) {
	if !messages.IsBacked(data) {
		return "", false
	}

	p, err := messages.Decode(data)
	if err != nil {
		return "", false
	}

	uri, err := p.URI()
	if err != nil {
		return "", false
	}

	return uri, true
}
