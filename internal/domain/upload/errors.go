package upload

import "errors"

var (
	// ErrUploadFailed wraps a per-file remote or read failure.
	ErrUploadFailed = errors.New("upload failed")
	// ErrUploadBusy rejects a batch while another batch for the same session is running.
	ErrUploadBusy = errors.New("upload already in progress")
)
