package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
)

func requestDBC(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func parseIDParam(c *gin.Context) (uint, error) {
	return parseID(c.Param("id"), "id")
}

func parseID(raw, name string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperrors.ErrInvalidArgument, name)
	}
	return uint(v), nil
}

func bindError(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}
