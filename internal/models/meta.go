package models

import "time"

// RefMeta is one record of the batched tip-commit query.
type RefMeta struct {
	Ref         string // fully qualified, e.g. refs/heads/main
	Hash        string
	CommitTime  time.Time
	Summary     string
	AuthorEmail string
}
