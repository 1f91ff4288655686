package keep

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const labelIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newNodeID returns "<hex millis>.<16 hex digits>", the format Keep
// clients use for locally created nodes.
func newNodeID(now time.Time) string {
	return fmt.Sprintf("%x.%016x", now.UnixMilli(), rand.Uint64())
}

// newLabelID returns "tag.<12 base36 chars>.<hex millis>".
func newLabelID(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteByte(labelIDAlphabet[rand.Intn(len(labelIDAlphabet))])
	}
	return fmt.Sprintf("tag.%s.%x", b.String(), now.UnixMilli())
}

func newSessionID(now time.Time) string {
	return fmt.Sprintf("s--%d--%d", now.UnixMilli(), 1000000000+rand.Int63n(9000000000))
}

// newListSort returns the sort value of the first entry of a new list.
func newListSort() int64 {
	return 1000000000 + rand.Int63n(9000000000)
}
