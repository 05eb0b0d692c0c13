package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/internal/interface/middleware"
	"github.com/oksasatya/staff-auth/pkg/response"
	"github.com/oksasatya/staff-auth/pkg/validation"
)

// writeError renders err with the status of its taxonomy class. Unclassified
// errors are logged and hidden behind a generic message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := middleware.StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
		response.Error(c, status, "Internal server error", nil)
		return
	}
	response.Error(c, status, err.Error(), nil)
}

func writeBindError(c *gin.Context, err error) {
	details := validation.ToDetails(err)
	response.Error(c, http.StatusBadRequest, validation.Summary(details), details)
}
