package registry

import "errors"

var (
	// errDuplicateTag is returned by Register when a subsystem's tag is
	// already claimed by a previously registered subsystem.
	errDuplicateTag = errors.New("registry: duplicate subsystem tag")

	// errTruncatedHeader is returned by LoadInstanceAll when fewer than
	// headerSize bytes remain where an entry header is expected.
	errTruncatedHeader = errors.New("registry: truncated entry header")

	// errTruncatedPayload is returned by LoadInstanceAll when an entry's
	// declared length reaches past the end of the blob.
	errTruncatedPayload = errors.New("registry: truncated entry payload")
)
