package db

import (
	"testing"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

func nopLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.Nop()
}
