package store

import (
	"github.com/thalesfsp/smbo"
)

// RunCheckpointer saves every snapshot of one run to a Store. It implements
// smbo.Checkpointer.
type RunCheckpointer struct {
	Store  Store
	RunID  string
	Domain smbo.Domain
	Config RunConfig
}

// SaveSnapshot implements smbo.Checkpointer.
func (r *RunCheckpointer) SaveSnapshot(snapshot *smbo.Snapshot) error {
	return r.Store.SaveCheckpoint(r.RunID, NewCheckpoint(r.RunID, r.Domain, snapshot, r.Config))
}
