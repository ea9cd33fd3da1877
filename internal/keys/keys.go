// Package keys builds the object storage keys that backed payloads are written under.
package keys

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UnassignedPartition is used when the caller does not know which partition a record goes to.
const UnassignedPartition int32 = -1

const unassignedSegment = "unassigned"

// Generator creates keys of the form basePath/topic/partition/token. The token is a random UUID so
// that a retried produce of the same record never lands on a key that was already written.
type Generator struct {
	basePath string
	newToken func() string
}

func New(basePath string) *Generator {
	return &Generator{
		basePath: strings.Trim(basePath, "/"),
		newToken: uuid.NewString,
	}
}

func (g *Generator) Key(topic string, partition int32) string {
	return g.PartitionPrefix(topic, partition) + g.newToken()
}

// TopicPrefix returns the prefix shared by every key of a topic. It always ends with a slash so that
// a topic never matches another topic it is a prefix of.
func (g *Generator) TopicPrefix(topic string) string {
	if g.basePath == "" {
		return topic + "/"
	}
	return g.basePath + "/" + topic + "/"
}

func (g *Generator) PartitionPrefix(topic string, partition int32) string {
	return g.TopicPrefix(topic) + partitionSegment(partition) + "/"
}

func (g *Generator) BasePath() string {
	return g.basePath
}

func partitionSegment(partition int32) string {
	if partition < 0 {
		return unassignedSegment
	}
	return strconv.FormatInt(int64(partition), 10)
}
