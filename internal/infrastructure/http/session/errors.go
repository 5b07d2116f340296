package session

import "errors"

var ErrCookieTooLarge = errors.New("cart does not fit in a cookie")
