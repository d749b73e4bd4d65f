package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates 63-bit Twitter style identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the
// hostname, so replicas rarely collide without explicit coordination.
func NewSnowflake() (*Snowflake, error) {
	return NewSnowflakeWithNode(hostNode())
}

// NewSnowflakeWithNode builds a generator for an explicit node number (0-1023).
func NewSnowflakeWithNode(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

// Generate returns the next identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostNode() int64 {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return 1
	}
	sum := sha256.Sum256([]byte(host))
	return int64(binary.BigEndian.Uint16(sum[:2]) % 1024)
}
