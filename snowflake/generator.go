// Package snowflake issues run identifiers. Each pipeline invocation gets one
// so its log lines and spans can be correlated.
package snowflake

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
)

const nodeBits = 10
const maxNodeId = -1 ^ (-1 << nodeBits)

var generator *snowflake.Node

// getNodeId hashes the pid so concurrent processes on one host rarely share a node.
func getNodeId() int64 {
	bs := []byte(fmt.Sprintf("cobf%d", os.Getpid()))
	code := uint32(0)

	for _, b := range bs {
		code = 31*code + uint32(b)
	}

	return int64(code) % (maxNodeId + 1)
}

func init() {
	generator, _ = snowflake.NewNode(max(0, min(maxNodeId, getNodeId())))
}

// RunID returns a fresh base32 run identifier.
func RunID() string {
	return generator.Generate().Base32()
}
