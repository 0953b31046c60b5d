// Package imaging converts uploaded image bytes to and from the inline
// textual form stored on a measurement row.
package imaging

import "encoding/base64"

// Encode returns the storable base64 text for an upload. Lossless: Decode
// returns the exact original bytes.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}
