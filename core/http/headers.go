package http

// Header names the server itself reads or writes
const (
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderConnection    = "Connection"
)
