package ui

import "sync/atomic"

type Stats struct {
	TotalChapters atomic.Int64
	TotalBytes    atomic.Int64
	Checkpoints   atomic.Int64
}
