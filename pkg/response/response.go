package response

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Build serializes a response with a single Content-Type header.
// There is no Content-Length; the connection is closed after the body.
func Build(contentType, body string, status int) []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "HTTP/1.1 %d %s\r\n", status, Reason(status))
	fmt.Fprintf(buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// Write builds the response and writes it to w.
func Write(w io.Writer, contentType, body string, status int) error {
	b := Build(contentType, body, status)
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// Reason returns the standard reason phrase for status, or "Unknown".
func Reason(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown"
}
