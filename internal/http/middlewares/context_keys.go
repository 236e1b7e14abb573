package middlewares

// gin context keys. The request id key is shared with the handlers package.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "user_id"
)
