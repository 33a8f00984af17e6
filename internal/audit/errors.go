package audit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/acesso/internal/model"
)

var httpStatusRe = regexp.MustCompile(`\b([45]\d{2})\b`)

var (
	timeoutPatterns = []string{
		"context deadline exceeded",
		"timed out",
		"timeout",
	}
	sslPatterns = []string{
		"ssl",
		"cert",
		"x509",
	}
	connectionPatterns = []string{
		"connection refused",
		"connection reset",
		"err_connection",
		"err_name_not_resolved",
		"err_address_unreachable",
		"err_internet_disconnected",
		"no such host",
		"network is unreachable",
	}
)

// ClassifyPageError maps a navigation failure onto the page error taxonomy.
// Pattern groups are checked in a fixed order and the first match wins, so a
// message like ERR_CONNECTION_TIMED_OUT classifies as a timeout, not a
// connection error. The returned status is the HTTP status when one is known
// or parseable from the message.
func ClassifyPageError(err error, httpStatus int) (model.PageErrorType, int) {
	if err == nil {
		return "", httpStatus
	}
	msg := strings.ToLower(err.Error())

	matchAny := func(patterns []string) bool {
		for _, p := range patterns {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	}

	switch {
	case matchAny(timeoutPatterns):
		return model.PageErrTimeout, httpStatus
	case matchAny(sslPatterns):
		return model.PageErrSSL, httpStatus
	case matchAny(connectionPatterns):
		return model.PageErrConnection, httpStatus
	}

	if httpStatus >= 400 {
		return model.PageErrHTTP, httpStatus
	}
	if m := httpStatusRe.FindStringSubmatch(msg); m != nil {
		status, _ := strconv.Atoi(m[1])
		return model.PageErrHTTP, status
	}
	return model.PageErrOther, httpStatus
}
