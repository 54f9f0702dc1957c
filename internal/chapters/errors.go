package chapters

import "errors"

// ErrNoContent marks the end of the available chapters: the page is missing,
// has no content container, or reports that the chapter does not exist.
var ErrNoContent = errors.New("no chapter content")
