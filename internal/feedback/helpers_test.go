package feedback_test

import (
	"strconv"

	"github.com/frahmantamala/feedback-management/internal/transport"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func transportBase() *transport.BaseHandler {
	return transport.NewBaseHandler(testLogger())
}
