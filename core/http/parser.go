package http

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Decode failures. Each is wrapped in a *DecodeError, so callers can match with
// errors.Is or pull the whole error out with errors.As.
var (
	ErrEmptyRequest         = errors.New("http: empty request")
	ErrMalformedRequestLine = errors.New("http: malformed request line")
	ErrUnknownMethod        = errors.New("http: unknown method")
	ErrTruncatedBody        = errors.New("http: truncated body")
)

// DecodeError reports a request that could not be decoded
type DecodeError struct {
	Kind   error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func decodeError(kind error, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsDecodeError reports whether err came from a malformed request rather than
// from the transport
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// ReadRequest decodes one request from br.
//
// Malformed input yields a *DecodeError. Any other error is a transport failure
// from the underlying reader.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	line, n, err := readLine(br)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &DecodeError{Kind: ErrEmptyRequest}
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, decodeError(ErrMalformedRequestLine, "want 3 fields, got %d", len(fields))
	}

	method, ok := ParseMethod(fields[0])
	if !ok {
		return nil, decodeError(ErrUnknownMethod, "%q", fields[0])
	}

	req := &Request{
		Method:  method,
		URI:     fields[1],
		Proto:   fields[2],
		Headers: make(map[string]string),
	}

	if err := readHeaders(br, req.Headers); err != nil {
		return nil, err
	}

	length := contentLength(req.Headers)
	if length == 0 {
		return req, nil
	}

	body, err := readBody(br, length)
	if err != nil {
		return nil, err
	}
	req.Body = body

	return req, nil
}

// readLine reads through the next '\n' and strips the line terminator.
// n is the number of raw bytes consumed; a final unterminated line at EOF is
// returned as-is.
func readLine(br *bufio.Reader) (line string, n int, err error) {
	raw, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", len(raw), fmt.Errorf("http: read line: %w", err)
	}
	return strings.TrimRight(raw, "\r\n"), len(raw), nil
}

// readHeaders consumes header lines up to the blank separator line or EOF
func readHeaders(br *bufio.Reader, headers map[string]string) error {
	for {
		line, n, err := readLine(br)
		if err != nil {
			return err
		}
		if n == 0 || line == "" {
			return nil
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
}

// contentLength returns the declared body length, or 0 when the header is
// missing or unparsable
func contentLength(headers map[string]string) int64 {
	v, ok := headers["content-length"]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// readBody reads exactly length bytes. The buffer grows with what actually
// arrives, so a bogus Content-Length cannot force a huge allocation.
func readBody(br *bufio.Reader, length int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, br, length)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	if n < length {
		return nil, decodeError(ErrTruncatedBody, "got %d of %d bytes", n, length)
	}

	body, err := unicode.UTF8.NewDecoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("http: decode body: %w", err)
	}
	return body, nil
}
