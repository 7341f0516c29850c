package repository

import "errors"

// ErrNotAURL indicates the pasted text is not an http(s) URL
var ErrNotAURL = errors.New("pasted text is not an image URL")
