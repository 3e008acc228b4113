package request

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformedRequest is returned when the request line lacks a method or path.
var ErrMalformedRequest = errors.New("malformed request")

// Request is the tokenized first line of a raw request.
type Request struct {
	Method  string
	Path    string
	Version string
	Raw     string
}

// Parse splits the first line of raw into method, path and version.
// Only the method and path are required; headers and body are left in Raw.
func Parse(raw string) (*Request, error) {
	line := raw
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	line = strings.TrimSuffix(line, "\r")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: request line %q", ErrMalformedRequest, line)
	}

	req := &Request{Method: fields[0], Path: fields[1], Raw: raw}
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, nil
}

// Resource returns the part of path after the last '/'.
func Resource(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".xml":  "application/xml",
}

// ContentType maps the extension of resource to a MIME type, defaulting to text/plain.
func ContentType(resource string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(resource))]; ok {
		return ct
	}
	return "text/plain"
}

// Authorization looks for an "Authorization: <scheme> <credentials>" header
// line after the request line. ok is false if no well-formed line exists.
func Authorization(raw string) (scheme, credentials string, ok bool) {
	lines := strings.Split(raw, "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			// end of headers
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "Authorization") {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) != 2 {
			return "", "", false
		}
		return fields[0], fields[1], true
	}
	return "", "", false
}
