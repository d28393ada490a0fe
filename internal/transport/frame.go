package transport

import (
	"errors"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

// Kinds of handle slots in a frame.
const (
	slotNone byte = iota
	slotMessagePipe
	slotDataPipeConsumer
	slotDataPipeProducer
	slotSharedBuffer
)

// maxFrame bounds one datagram: count byte, one kind byte per handle and
// the payload.
const maxFrame = 1 + system.MaxMessageHandles + system.MaxMessageBytes

var errBadFrame = errors.New("malformed frame")

// encodeFrame lays out [count][kinds...][payload].
func encodeFrame(kinds []byte, payload []byte) []byte {
	frame := make([]byte, 0, 1+len(kinds)+len(payload))
	frame = append(frame, byte(len(kinds)))
	frame = append(frame, kinds...)
	return append(frame, payload...)
}

func decodeFrame(frame []byte) (kinds []byte, payload []byte, err error) {
	if len(frame) < 1 {
		return nil, nil, errBadFrame
	}
	n := int(frame[0])
	if n > system.MaxMessageHandles || len(frame) < 1+n {
		return nil, nil, errBadFrame
	}
	return frame[1 : 1+n], frame[1+n:], nil
}

// fdCount is the number of descriptors a frame's slots carry.
func fdCount(kinds []byte) int {
	n := 0
	for _, k := range kinds {
		if k != slotNone {
			n++
		}
	}
	return n
}
