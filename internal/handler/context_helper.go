package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

// pageParams reads page and limit, leaving zero for the service defaults when absent or malformed.
func pageParams(c *gin.Context) (int, int) {
	var page, size int
	if value, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = value
	}
	if value, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = value
	}
	return page, size
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, key+" must be a boolean")
	}
	return value, nil
}
