package common

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// NA marks a value that is deliberately not set
const NA = "N/A"

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
	idNodeNum  int64 = 1
)

// SetNodeID sets the snowflake node number, it must be called before the
// first id is generated to take effect.
func SetNodeID(n int64) {
	if n >= 0 && n < 1024 {
		idNodeNum = n
	}
}

// UUIDint64 returns a time-ordered unique int64 id
func UUIDint64() int64 {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(idNodeNum)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}

// ParseInt64 parses a decimal id, surrounding spaces are ignored
func ParseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// IsEmptyOrNA reports whether the value is blank or the N/A marker
func IsEmptyOrNA(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == NA
}
