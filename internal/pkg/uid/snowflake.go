package uid

import (
	"errors"
	"hash/fnv"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ErrNodeIdentityUnavailable indicates no stable node identity is available.
var ErrNodeIdentityUnavailable = errors.New("uid: cannot determine node identity (machine-id/hostname unavailable)")

// Snowflake generates 63-bit time-ordered IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from the machine identity. Distinct
// hosts can still hash to the same node; prefer NewSnowflakeFor with an
// explicit node when running several replicas.
func NewSnowflake() (*Snowflake, error) {
	src, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(src))

	return NewSnowflakeNode(int64(h.Sum32() % 1024))
}

// NewSnowflakeFor uses the configured node number when it is set (>= 0) and
// falls back to the machine-derived one otherwise. Replicas sharing a host
// must be given distinct node numbers.
func NewSnowflakeFor(configured int64) (*Snowflake, error) {
	if configured >= 0 {
		return NewSnowflakeNode(configured)
	}
	return NewSnowflake()
}

// NewSnowflakeNode creates a generator for an explicit node number (0-1023).
func NewSnowflakeNode(node int64) (*Snowflake, error) {
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

// nodeIdentity returns /etc/machine-id or, failing that, the hostname.
func nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrNodeIdentityUnavailable
}
