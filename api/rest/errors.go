package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/gameerr"
	mw "github.com/kasuganosora/textrpg/middleware"
	"go.uber.org/zap"
)

// statusOf maps a game error class to an HTTP status.
func statusOf(err error) int {
	switch gameerr.KindOf(err) {
	case gameerr.NotFound:
		return http.StatusNotFound
	case gameerr.PreconditionFailed:
		return http.StatusConflict
	case gameerr.InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Unclassified errors are logged and
// their text is not exposed.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("player", mw.GetPlayerKey(c)),
			zap.String("trace_id", mw.GetTraceID(c)),
			zap.Error(err))
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "code": gameerr.CodeOf(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "BAD_REQUEST"})
}
