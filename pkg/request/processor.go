package request

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrResourceUnavailable is returned when a canned page cannot be read from the static root.
var ErrResourceUnavailable = errors.New("resource unavailable")

// Canned page file names inside the static root.
const (
	NotFoundPage            = "NotFound.html"
	BadRequestPage          = "BadRequest.html"
	InternalServerErrorPage = "InternalServerError.html"
)

const (
	staticPrefix              = "/static/"
	badRequestPrefix          = "/BadRequest"
	internalServerErrorPrefix = "/InternalServerError"
)

// Outcome is the body and status code chosen for one request.
type Outcome struct {
	Body   string
	Status int
}

// NoContentFallback is used for paths no route claims.
var NoContentFallback = Outcome{Status: http.StatusNoContent}

// WelcomeFallback answers unrouted paths with a fixed welcome page.
var WelcomeFallback = Outcome{
	Body:   "<html><body><h1>Welcome</h1></body></html>",
	Status: http.StatusOK,
}

// Processor routes requests to static files and canned pages under Root.
type Processor struct {
	Root     string
	Fallback Outcome
}

// NewProcessor returns a Processor serving root with the 204 fallback.
func NewProcessor(root string) *Processor {
	return &Processor{Root: root, Fallback: NoContentFallback}
}

// Process decides the outcome for req. resource is the trailing path segment
// of req.Path.
func (p *Processor) Process(req *Request, resource string) (Outcome, error) {
	switch path := req.Path; {
	case strings.HasPrefix(path, staticPrefix):
		body, err := readFile(filepath.Join(p.Root, resource))
		if errors.Is(err, fs.ErrNotExist) {
			return p.Canned(NotFoundPage, http.StatusNotFound)
		}
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Body: body, Status: http.StatusOK}, nil
	case strings.HasPrefix(path, badRequestPrefix):
		return p.Canned(BadRequestPage, http.StatusBadRequest)
	case strings.HasPrefix(path, internalServerErrorPrefix):
		return p.Canned(InternalServerErrorPage, http.StatusInternalServerError)
	}
	return p.Fallback, nil
}

// Canned reads the named page from the root and pairs it with status.
func (p *Processor) Canned(page string, status int) (Outcome, error) {
	body, err := readFile(filepath.Join(p.Root, page))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, page, err)
	}
	return Outcome{Body: body, Status: status}, nil
}

// readFile reads a regular file. Directories and names the OS cannot stat
// (too long, embedded NUL) count as missing; permission errors do not.
func readFile(name string) (string, error) {
	info, err := os.Stat(name)
	if err != nil && !errors.Is(err, fs.ErrPermission) && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
