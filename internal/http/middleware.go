package http

import (
	"log/slog"

	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Recovery logs the panic and answers with the standard 500 envelope.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		reqID, _ := ctx.Get("request_id")
		log.ErrorContext(ctx.Request.Context(), "panic recovered",
			"panic", recovered,
			"route", ctx.FullPath(),
			"request_id", reqID,
		)
		handlers.RespondInternal(ctx, "Something went wrong.")
		ctx.Abort()
	})
}
