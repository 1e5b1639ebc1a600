package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

//EncodeToString returns the UPPERCASE string representation of hexBytes with
//the 0X prefix
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("0X%X", hexBytes)
}

//DecodeFromString converts a hex string with or without the 0X prefix to a
//byte slice
func DecodeFromString(hexString string) ([]byte, error) {
	if strings.HasPrefix(hexString, "0X") || strings.HasPrefix(hexString, "0x") {
		hexString = hexString[2:]
	}
	return hex.DecodeString(hexString)
}

//ShortHex returns the first bytes of data in hex form. It is only meant to
//keep log lines readable.
func ShortHex(data []byte) string {
	if len(data) > 6 {
		data = data[:6]
	}
	return fmt.Sprintf("%X", data)
}
