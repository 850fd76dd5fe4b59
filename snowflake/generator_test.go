package snowflake

import (
	"testing"

	"github.com/bwmarrin/snowflake"
)

func TestRunIDIncreasing(t *testing.T) {
	var prev snowflake.ID
	for i := 0; i < 1000; i++ {
		id, err := snowflake.ParseBase32([]byte(RunID()))
		if err != nil {
			t.Fatalf("parse run id: %v", err)
		}
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		if id.Node() != getNodeId() {
			t.Fatalf("node %d, want %d", id.Node(), getNodeId())
		}
		prev = id
	}
}

func TestRunIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := RunID()
		if id == "" {
			t.Fatal("empty run id")
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNodeIdInRange(t *testing.T) {
	if id := getNodeId(); id < 0 || id > maxNodeId {
		t.Fatalf("node id %d out of range [0, %d]", id, maxNodeId)
	}
}
