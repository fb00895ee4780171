// Package wire implements the streaming wire format for remote runs
// (§6): bit-exact line encoding of data rows, progress, completion,
// and error events, plus a minimal websocket fan-out server.
package wire

import "fmt"

// EncodeData renders `[N] payload` for replicate N, or `[N]` with no
// trailing space when payload is empty.
func EncodeData(replicate int, payload string) string {
	if payload == "" {
		return fmt.Sprintf("[%d]", replicate)
	}
	return fmt.Sprintf("[%d] %s", replicate, payload)
}

// EncodeProgress renders `[progress K]`.
func EncodeProgress(step int) string {
	return fmt.Sprintf("[progress %d]", step)
}

// EncodeEnd renders `[end N]` for a finished replicate.
func EncodeEnd(replicate int) string {
	return fmt.Sprintf("[end %d]", replicate)
}

// EncodeError renders `[error] text`.
func EncodeError(text string) string {
	return fmt.Sprintf("[error] %s", text)
}
