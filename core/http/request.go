package http

import (
	"strings"
)

// Method is one of the request methods the server understands
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodDelete
	MethodPurge
)

var methodNames = [...]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodPut:    "PUT",
	MethodDelete: "DELETE",
	MethodPurge:  "PURGE",
}

// String returns the wire form of the method
func (m Method) String() string {
	if m == 0 || int(m) >= len(methodNames) {
		return "UNKNOWN"
	}
	return methodNames[m]
}

// ParseMethod matches s case-insensitively against the known methods
func ParseMethod(s string) (Method, bool) {
	for m := MethodGet; int(m) < len(methodNames); m++ {
		if strings.EqualFold(s, methodNames[m]) {
			return m, true
		}
	}
	return 0, false
}

// Request is a decoded HTTP request.
//
// Header names are stored lowercased. Body is nil unless the request carried a
// positive Content-Length and all of those bytes arrived.
type Request struct {
	Method  Method
	URI     string
	Proto   string
	Headers map[string]string
	Body    []byte
}

// Header returns the value of the named header (case-insensitive)
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// HasBody reports whether the request carried a body
func (r *Request) HasBody() bool {
	return r.Body != nil
}

// Path returns the URI up to the first '?', or "/" when that part is empty
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.URI, "?")
	if path == "" {
		return "/"
	}
	return path
}

// QueryString returns the raw query after the first '?'.
// ok is false when the URI has no '?'.
func (r *Request) QueryString() (query string, ok bool) {
	_, query, ok = strings.Cut(r.URI, "?")
	return query, ok
}

// Query parses the query string into a map.
// Pairs are split on the first '='; a pair without '=' gets an empty value and
// empty segments are skipped. Later duplicates overwrite earlier ones.
func (r *Request) Query() map[string]string {
	out := make(map[string]string)

	query, ok := r.QueryString()
	if !ok {
		return out
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out[key] = value
	}

	return out
}
