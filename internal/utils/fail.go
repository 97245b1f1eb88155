package utils

import (
	"fmt"
	"net/http"

	"storefront/internal/logger"
)

// Fail logs err under op and writes its envelope. Client errors log at WARN.
func Fail(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	if IsClientError(err) {
		log.Warn("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		log.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
	WriteErr(w, err)
}
