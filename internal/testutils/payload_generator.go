package testutils

import (
	"math/rand"
	"strings"
)

// BoundaryPayloads returns payloads sized around maxByteSize, keyed by a test description.
func BoundaryPayloads(maxByteSize int) map[string][]byte {
	return map[string][]byte{
		"empty":          {},
		"one_byte":       CreatePayload(1),
		"below_max":      CreatePayload(maxByteSize - 1),
		"at_max":         CreatePayload(maxByteSize),
		"above_max":      CreatePayload(maxByteSize + 1),
		"far_above_max":  CreatePayload(maxByteSize * 3),
		"printable_text": []byte(CreateText(maxByteSize / 2)),
	}
}

// RandomPayload returns a payload between minSize and maxSize bytes.
func RandomPayload(minSize, maxSize int) []byte {
	return CreatePayload(rand.Intn(maxSize-minSize+1) + minSize)
}

func CreateText(numBytes int) string {
	builder := strings.Builder{}
	builder.Grow(numBytes)

	// printable characters
	min := 33
	max := 126

	for i := 0; i < numBytes; i++ {
		randNum := rand.Intn(max-min+1) + min
		builder.WriteByte(byte(randNum))
	}

	return builder.String()
}

func CreatePayload(numBytes int) []byte {
	ret := make([]byte, numBytes)

	min := 0
	max := 255

	for i := 0; i < numBytes; i++ {
		randNum := rand.Intn(max-min+1) + min
		ret[i] = byte(randNum)
	}

	return ret
}
