package transport

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/zeebo/xxh3"

	"github.com/sobulik/fundec/types"
)

// Message headers carried by every point-to-point NATS message.
const (
	headerSource   = "Fundec-Source"
	headerTag      = "Fundec-Tag"
	headerCount    = "Fundec-Count"
	headerChecksum = "Fundec-Checksum"
)

const itemSize = 8

// encodeItems packs items as little-endian int64 values.
func encodeItems(items []int) []byte {
	data := make([]byte, len(items)*itemSize)
	for i, v := range items {
		binary.LittleEndian.PutUint64(data[i*itemSize:], uint64(int64(v))) //nolint:gosec // sign round-trips through uint64
	}

	return data
}

// decodeItems is the inverse of encodeItems.
func decodeItems(data []byte) ([]int, error) {
	if len(data)%itemSize != 0 {
		return nil, fmt.Errorf("%w: payload of %d bytes is not a whole number of items",
			types.ErrMalformedMessage, len(data))
	}

	items := make([]int, len(data)/itemSize)
	for i := range items {
		items[i] = int(int64(binary.LittleEndian.Uint64(data[i*itemSize:]))) //nolint:gosec // see encodeItems
	}

	return items, nil
}

func checksum(data []byte) string {
	return strconv.FormatUint(xxh3.Hash(data), 16)
}

// newMessage builds the wire form of one point-to-point message.
func newMessage(subject string, src types.Rank, tag types.Tag, items []int) *nats.Msg {
	data := encodeItems(items)

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(headerSource, strconv.Itoa(int(src)))
	msg.Header.Set(headerTag, strconv.Itoa(int(tag)))
	msg.Header.Set(headerCount, strconv.Itoa(len(items)))
	msg.Header.Set(headerChecksum, checksum(data))

	return msg
}

// parseMessage decodes a received message into an envelope.
//
// Messages whose routing headers are unusable return an error and must be dropped.
// A payload failing its checksum or count check still yields a routable envelope
// carrying the failure, so the matching receive reports it.
func parseMessage(msg *nats.Msg) (envelope, error) {
	src, err := strconv.Atoi(msg.Header.Get(headerSource))
	if err != nil {
		return envelope{}, fmt.Errorf("%w: bad %s header: %w", types.ErrMalformedMessage, headerSource, err)
	}
	tag, err := strconv.Atoi(msg.Header.Get(headerTag))
	if err != nil {
		return envelope{}, fmt.Errorf("%w: bad %s header: %w", types.ErrMalformedMessage, headerTag, err)
	}

	e := envelope{src: types.Rank(src), tag: types.Tag(tag)}

	if got, want := checksum(msg.Data), msg.Header.Get(headerChecksum); got != want {
		e.err = fmt.Errorf("%w: from rank %d tag %d", types.ErrChecksumMismatch, src, tag)
		return e, nil
	}

	items, err := decodeItems(msg.Data)
	if err != nil {
		e.err = err
		return e, nil
	}
	if count, err := strconv.Atoi(msg.Header.Get(headerCount)); err != nil || count != len(items) {
		e.err = fmt.Errorf("%w: count header disagrees with %d items", types.ErrMalformedMessage, len(items))
		return e, nil
	}
	e.data = items

	return e, nil
}
