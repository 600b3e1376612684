package uid

import (
	"errors"
	"hash/fnv"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ErrNodeIdentityUnavailable indicates the snowflake node number could not be derived.
var ErrNodeIdentityUnavailable = errors.New("uid: cannot determine snowflake node (hostname unavailable)")

// Snowflake generates int64 IDs using the Twitter snowflake layout.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from the hostname so replicas of the
// same deployment get distinct, stable nodes.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return nil, ErrNodeIdentityUnavailable
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(host))

	return NewSnowflakeWithNode(int64(h.Sum32() % 1024))
}

// NewSnowflakeWithNode creates a generator for an explicit node number (0..1023).
func NewSnowflakeWithNode(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

// Generate returns the next ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
