package http

import (
	"io"
	"sort"
	"strconv"

	"github.com/searchktools/pool-server/core/pools"
)

// Response is an HTTP response waiting to be encoded. A nil Body is absent.
type Response struct {
	Status  int
	Reason  string
	Headers map[string]string
	Body    []byte
}

// NewResponse returns the default response: 200 OK with body "OK"
func NewResponse() *Response {
	return &Response{
		Status:  200,
		Reason:  "OK",
		Headers: make(map[string]string),
		Body:    []byte("OK"),
	}
}

// NotFound returns a 404 response without a body
func NotFound() *Response {
	return &Response{
		Status:  404,
		Reason:  "Not Found",
		Headers: make(map[string]string),
	}
}

// BadRequest returns a 400 response without a body
func BadRequest() *Response {
	return &Response{
		Status:  400,
		Reason:  "Bad Request",
		Headers: make(map[string]string),
	}
}

// SetHeader sets a response header, replacing any previous value
func (r *Response) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
}

// SetContentLength stamps a Content-Length header matching the body.
// The encoder never does this on its own.
func (r *Response) SetContentLength() {
	r.SetHeader(HeaderContentLength, strconv.Itoa(len(r.Body)))
}

// encodedSize estimates the wire size so the right buffer tier is picked
func (r *Response) encodedSize() int {
	n := len("HTTP/1.1 000 \r\n\r\n") + len(r.Reason) + len(r.Body)
	for k, v := range r.Headers {
		n += len(k) + len(v) + 4
	}
	return n
}

// AppendTo appends the wire form of r to dst.
// Headers are written in name order so the output is deterministic.
func (r *Response) AppendTo(dst []byte) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = strconv.AppendInt(dst, int64(r.Status), 10)
	dst = append(dst, ' ')
	dst = append(dst, r.Reason...)
	dst = append(dst, "\r\n"...)

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dst = append(dst, name...)
		dst = append(dst, ": "...)
		dst = append(dst, r.Headers[name]...)
		dst = append(dst, "\r\n"...)
	}

	dst = append(dst, "\r\n"...)
	return append(dst, r.Body...)
}

// Bytes returns the wire form of r
func (r *Response) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, r.encodedSize()))
}

// WriteTo encodes r into a pooled buffer and writes it to w in one call
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	buf := pools.AcquireBuffer(r.encodedSize())
	defer pools.ReleaseBuffer(buf)

	*buf = r.AppendTo(*buf)
	n, err := w.Write(*buf)
	return int64(n), err
}
