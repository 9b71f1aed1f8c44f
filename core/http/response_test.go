package http

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseDefaults(t *testing.T) {
	resp := NewResponse()
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "OK", resp.Reason)
	assert.Equal(t, "OK", string(resp.Body))
	assert.Empty(t, resp.Headers)

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\nOK", string(resp.Bytes()))
}

func TestResponseEncoding(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "not found has no body",
			resp: NotFound(),
			want: "HTTP/1.1 404 Not Found\r\n\r\n",
		},
		{
			name: "bad request has no body",
			resp: BadRequest(),
			want: "HTTP/1.1 400 Bad Request\r\n\r\n",
		},
		{
			name: "headers emitted in name order",
			resp: &Response{
				Status:  201,
				Reason:  "Created",
				Headers: map[string]string{"X-B": "2", "Content-Type": "text/plain", "X-A": "1"},
				Body:    []byte("done"),
			},
			want: "HTTP/1.1 201 Created\r\nContent-Type: text/plain\r\nX-A: 1\r\nX-B: 2\r\n\r\ndone",
		},
		{
			name: "nil header map",
			resp: &Response{Status: 204, Reason: "No Content"},
			want: "HTTP/1.1 204 No Content\r\n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.resp.Bytes()))
		})
	}
}

func TestResponseEncodingIsDeterministic(t *testing.T) {
	resp := NewResponse()
	for i := 0; i < 10; i++ {
		resp.SetHeader(string(rune('a'+i)), "v")
	}

	first := resp.Bytes()
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, resp.Bytes())
	}
}

func TestResponseNoAutomaticContentLength(t *testing.T) {
	resp := NewResponse()
	assert.NotContains(t, string(resp.Bytes()), HeaderContentLength)

	resp.SetContentLength()
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nOK", string(resp.Bytes()))

	empty := BadRequest()
	empty.SetContentLength()
	assert.Equal(t, "HTTP/1.1 400 Bad Request\r\nContent-Length: 0\r\n\r\n", string(empty.Bytes()))
}

func TestResponseWriteTo(t *testing.T) {
	resp := NewResponse()
	resp.Body = bytes.Repeat([]byte("x"), 10000)

	var buf bytes.Buffer
	n, err := resp.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, resp.Bytes(), buf.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestResponseWriteToError(t *testing.T) {
	_, err := NewResponse().WriteTo(failingWriter{})
	assert.EqualError(t, err, "broken pipe")
}

// TestRequestRoundTrip checks that every decoded request yields a well-formed default response
func TestRequestRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"GET / HTTP/1.1\r\n\r\n",
		"DELETE /x?y=z HTTP/1.0\r\nHost: h\r\n\r\n",
		"purge /cache HTTP/1.1\r\n\r\n",
	} {
		_, err := parse(raw)
		require.NoError(t, err)

		a := NewResponse().Bytes()
		b := NewResponse().Bytes()
		assert.Equal(t, a, b)
		assert.True(t, bytes.HasPrefix(a, []byte("HTTP/1.1 200 ")))
	}
}
