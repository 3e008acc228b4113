package response

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func expectEqual(t *testing.T, expect, actual string) {
	t.Helper()
	if expect != actual {
		t.Errorf("Got %q, want %q", actual, expect)
	}
}

func TestBuild(t *testing.T) {
	expectEqual(t,
		"HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<h1>X</h1>",
		string(Build("text/html", "<h1>X</h1>", 200)))
	expectEqual(t,
		"HTTP/1.1 204 No Content\r\nContent-Type: text/plain\r\n\r\n",
		string(Build("text/plain", "", 204)))
	expectEqual(t,
		"HTTP/1.1 404 Not Found\r\nContent-Type: text/html\r\n\r\nmissing",
		string(Build("text/html", "missing", 404)))
}

func TestReason(t *testing.T) {
	expectEqual(t, "Bad Request", Reason(400))
	expectEqual(t, "Unauthorized", Reason(401))
	expectEqual(t, "Internal Server Error", Reason(500))
	expectEqual(t, "Unknown", Reason(799))
}

type shortWriter struct{}

func (shortWriter) Write(b []byte) (int, error) {
	return len(b) / 2, nil
}

func TestWrite(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Write(buf, "application/json", "{}", 200); err != nil {
		t.Fatal(err)
	}
	expectEqual(t, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{}", buf.String())

	if err := Write(shortWriter{}, "text/plain", "body", 200); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("got %v, want io.ErrShortWrite", err)
	}
}
