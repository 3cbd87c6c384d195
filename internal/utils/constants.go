package utils

// HTTP Header Constants
const (
	// Standard HTTP Headers
	HeaderContentType     = "Content-Type"
	HeaderContentLength   = "Content-Length"
	HeaderContentEncoding = "Content-Encoding"
	HeaderUserAgent       = "User-Agent"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderCacheControl    = "Cache-Control"
	HeaderConnection      = "Connection"
	HeaderAuthorization   = "Authorization"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderResponseTime  = "X-Response-Time"

	// Service Headers
	HeaderXBackend        = "X-Adapter-Backend"
	HeaderXDialect        = "X-Adapter-Dialect"
	HeaderXAccelBuffering = "X-Accel-Buffering"

	// Transfer Headers
	HeaderTransferEncoding = "Transfer-Encoding"

	// CORS Headers
	HeaderAccessControlAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods  = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAccessControlExposeHeaders = "Access-Control-Expose-Headers"
)

// Content Type Constants
const (
	ContentTypeJSON            = "application/json"
	ContentTypeJSONUTF8        = "application/json; charset=utf-8"
	ContentTypeEventStream     = "text/event-stream"
	ContentTypeEventStreamUTF8 = "text/event-stream; charset=utf-8"
)

// Cache Control Values
const (
	CacheControlNoCache = "no-cache"
)

// CORS Values
const (
	CORSAllowOriginAll   = "*"
	CORSAllowMethodsAll  = "POST, GET, OPTIONS, PUT, DELETE"
	CORSAllowHeadersStd  = "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID"
	CORSExposeHeadersStd = "X-Request-ID, X-Response-Time, X-Adapter-Backend"
)

// Transfer Encoding Values
const (
	TransferEncodingChunked = "chunked"
)

// Connection Values
const (
	ConnectionKeepAlive = "keep-alive"
)

// Accept Encoding Values
const (
	AcceptEncodingGzip = "gzip"
)

// Header Values for Buffering
const (
	XAccelBufferingNo = "no"
)
