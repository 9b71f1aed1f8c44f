package http

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(raw string) (*Request, error) {
	return ReadRequest(bufio.NewReader(strings.NewReader(raw)))
}

// TestReadRequestScenarios covers the request shapes the server must accept
func TestReadRequestScenarios(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		method  Method
		uri     string
		proto   string
		headers map[string]string
		body    string
		hasBody bool
	}{
		{
			name:    "simple get",
			raw:     "GET /sleep HTTP/1.1\r\n\r\n",
			method:  MethodGet,
			uri:     "/sleep",
			proto:   "HTTP/1.1",
			headers: map[string]string{},
		},
		{
			name:    "lowercase method",
			raw:     "get /sleep HTTP/1.1\r\n\r\n",
			method:  MethodGet,
			uri:     "/sleep",
			proto:   "HTTP/1.1",
			headers: map[string]string{},
		},
		{
			name:    "post with body",
			raw:     "POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
			method:  MethodPost,
			uri:     "/x",
			proto:   "HTTP/1.1",
			headers: map[string]string{"content-length": "5"},
			body:    "hello",
			hasBody: true,
		},
		{
			name:    "bare LF terminators",
			raw:     "PUT /a HTTP/1.0\nHost: example\n\n",
			method:  MethodPut,
			uri:     "/a",
			proto:   "HTTP/1.0",
			headers: map[string]string{"host": "example"},
		},
		{
			name:    "headers lowercased, trimmed, last wins, junk skipped",
			raw:     "DELETE /r HTTP/1.1\r\n  X-Name :  first \r\nno colon here\r\nx-name: second\r\nX-Empty:\r\n\r\n",
			method:  MethodDelete,
			uri:     "/r",
			proto:   "HTTP/1.1",
			headers: map[string]string{"x-name": "second", "x-empty": ""},
		},
		{
			name:    "value keeps colons after the first",
			raw:     "PURGE /c HTTP/1.1\r\nHost: localhost:8080\r\n\r\n",
			method:  MethodPurge,
			uri:     "/c",
			proto:   "HTTP/1.1",
			headers: map[string]string{"host": "localhost:8080"},
		},
		{
			name:    "stream ends without blank line",
			raw:     "GET / HTTP/1.1\r\nAccept: */*",
			method:  MethodGet,
			uri:     "/",
			proto:   "HTTP/1.1",
			headers: map[string]string{"accept": "*/*"},
		},
		{
			name:    "unparsable content-length means no body",
			raw:     "POST /x HTTP/1.1\r\nContent-Length: lots\r\n\r\nhello",
			method:  MethodPost,
			uri:     "/x",
			proto:   "HTTP/1.1",
			headers: map[string]string{"content-length": "lots"},
		},
		{
			name:    "negative content-length means no body",
			raw:     "POST /x HTTP/1.1\r\nContent-Length: -3\r\n\r\nabc",
			method:  MethodPost,
			uri:     "/x",
			proto:   "HTTP/1.1",
			headers: map[string]string{"content-length": "-3"},
		},
		{
			name:    "zero content-length means no body",
			raw:     "POST /x HTTP/1.1\r\nContent-Length: 0\r\n\r\n",
			method:  MethodPost,
			uri:     "/x",
			proto:   "HTTP/1.1",
			headers: map[string]string{"content-length": "0"},
		},
		{
			name:    "extra bytes after body are left unread",
			raw:     "POST /x HTTP/1.1\r\nContent-Length: 3\r\n\r\nabcdef",
			method:  MethodPost,
			uri:     "/x",
			proto:   "HTTP/1.1",
			headers: map[string]string{"content-length": "3"},
			body:    "abc",
			hasBody: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parse(tt.raw)
			require.NoError(t, err)

			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.uri, req.URI)
			assert.Equal(t, tt.proto, req.Proto)
			assert.Equal(t, tt.headers, req.Headers)
			assert.Equal(t, tt.hasBody, req.HasBody())
			if tt.hasBody {
				assert.Equal(t, tt.body, string(req.Body))
			} else {
				assert.Nil(t, req.Body)
			}
		})
	}
}

// TestReadRequestErrors 测试解码失败
func TestReadRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty stream", "", ErrEmptyRequest},
		{"blank request line", "\r\n\r\n", ErrMalformedRequestLine},
		{"two tokens", "GET /\r\n\r\n", ErrMalformedRequestLine},
		{"four tokens", "GET / HTTP/1.1 extra\r\n\r\n", ErrMalformedRequestLine},
		{"unknown method", "FOO / HTTP/1.1\r\n\r\n", ErrUnknownMethod},
		{"truncated body", "POST /x HTTP/1.1\r\nContent-Length: 10\r\n\r\nhello", ErrTruncatedBody},
		{"body missing entirely", "POST /x HTTP/1.1\r\nContent-Length: 4\r\n\r\n", ErrTruncatedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parse(tt.raw)
			assert.Nil(t, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsDecodeError(err))

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.want, de.Kind)
		})
	}
}

func TestReadRequestHugeContentLength(t *testing.T) {
	// Must fail fast on the short stream without allocating the declared size
	_, err := parse("POST /x HTTP/1.1\r\nContent-Length: 9223372036854775807\r\n\r\nab")
	assert.ErrorIs(t, err, ErrTruncatedBody)
}

func TestReadRequestLowercaseMatchesUppercase(t *testing.T) {
	upper, err := parse("GET /sleep?x=1 HTTP/1.1\r\nHost: a\r\n\r\n")
	require.NoError(t, err)
	lower, err := parse("get /sleep?x=1 HTTP/1.1\r\nHost: a\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
}

func TestReadRequestInvalidUTF8Body(t *testing.T) {
	req, err := parse("POST /x HTTP/1.1\r\nContent-Length: 3\r\n\r\na\xffb")
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb", string(req.Body))
}

func TestReadRequestTransportError(t *testing.T) {
	br := bufio.NewReader(iotest.ErrReader(errors.New("connection reset")))
	_, err := ReadRequest(br)
	require.Error(t, err)
	assert.False(t, IsDecodeError(err))
	assert.ErrorContains(t, err, "connection reset")
}

func TestDecodeErrorMessage(t *testing.T) {
	_, err := parse("FOO / HTTP/1.1\r\n\r\n")
	assert.EqualError(t, err, `http: unknown method: "FOO"`)

	_, err = parse("")
	assert.EqualError(t, err, "http: empty request")
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"GET", "post", "Put", "dElEtE", "purge"} {
		m, ok := ParseMethod(name)
		assert.True(t, ok, name)
		assert.Equal(t, strings.ToUpper(name), m.String())
	}

	_, ok := ParseMethod("PATCH")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN", Method(0).String())
}

func BenchmarkReadRequest(b *testing.B) {
	raw := "POST /api/items?id=7 HTTP/1.1\r\nHost: localhost\r\nContent-Type: text/plain\r\nContent-Length: 11\r\n\r\nhello world"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := parse(raw); err != nil {
			b.Fatal(err)
		}
	}
}
