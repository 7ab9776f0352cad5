package binio

import "fmt"

// TruncatedReadError reports a read that ended before the requested byte
// count was available.
type TruncatedReadError struct {
	Offset int64 // stream offset where the read started
	Want   int
	Got    int
}

func (e *TruncatedReadError) Error() string {
	return fmt.Sprintf("truncated read at offset %d: wanted %d bytes, got %d", e.Offset, e.Want, e.Got)
}

// SignatureError reports a file signature or header tag that does not match
// the expected value.
type SignatureError struct {
	Want string
	Got  string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature mismatch: expected %q, read %q", e.Want, e.Got)
}
