package heuristic

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newDiscardLogger is the Driver's default when the caller does not supply
// one via WithLogger: structured logging stays available without forcing
// every consumer to pay for it.
func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// replicaLogger returns a per-replica child entry, pre-populated with the
// fields that let a reader separate concurrently interleaved replica output
// without any locking on the caller's side.
func replicaLogger(base *logrus.Logger, id int, strategy string) *logrus.Entry {
	return base.WithFields(logrus.Fields{
		"replica_id": id,
		"strategy":   strategy,
	})
}
