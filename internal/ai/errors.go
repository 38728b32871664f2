package ai

import "errors"

var ErrUnavailable = errors.New("ai service unavailable")
