package transport

import (
	"bytes"
	"fmt"
)

// MakePublishFrame builds a publish frame: topic + \0 + payload,
// generalized from the pack's single-name binary framing
// (msgType + agentName + \0 + payload) to a bare topic string, since
// publish frames carry no message-type byte of their own — request and
// reply envelopes travel as plain JSON on the same connection and are
// never confused with a publish frame because a client never sends one.
func MakePublishFrame(topic string, payload []byte) []byte {
	frame := make([]byte, 0, len(topic)+1+len(payload))
	frame = append(frame, []byte(topic)...)
	frame = append(frame, 0)
	frame = append(frame, payload...)
	return frame
}

// ParsePublishFrame splits a publish frame back into its topic and
// payload.
func ParsePublishFrame(data []byte) (topic string, payload []byte, err error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", nil, fmt.Errorf("transport: missing topic separator")
	}
	if idx == 0 {
		return "", nil, fmt.Errorf("transport: missing topic")
	}
	return string(data[:idx]), data[idx+1:], nil
}
