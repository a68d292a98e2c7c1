package transport

import (
	"fmt"

	"github.com/sobulik/fundec/types"
)

// Reserved tags for collective traffic. User tags are non-negative, so types.AnyTag
// never matches these.
const (
	tagBroadcast types.Tag = -2
	tagBarrier   types.Tag = -3
)

func checkPeer(r types.Rank, size int, allowAny bool) error {
	if allowAny && r == types.AnySource {
		return nil
	}
	if r < 0 || int(r) >= size {
		return fmt.Errorf("%w: %d not in [0, %d)", types.ErrInvalidRank, r, size)
	}

	return nil
}

func checkSendTag(tag types.Tag) error {
	if tag < 0 {
		return fmt.Errorf("%w: %s is reserved", types.ErrInvalidTag, tag)
	}

	return nil
}

func checkRecvTag(tag types.Tag) error {
	if tag < 0 && tag != types.AnyTag {
		return fmt.Errorf("%w: %s is reserved", types.ErrInvalidTag, tag)
	}

	return nil
}
