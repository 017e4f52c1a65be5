package storage

import (
	"fmt"
	"sync"

	"github.com/tidwall/wal"
	"granola/configs"
	"granola/model"
)

// Log is the per-repository append-only intent log (spec.md §6). Every
// Prepare appends one line of the form "<operations-debug>, <timestamp>",
// and Indep/Coord Prepares append a follow-up vote line. The log is never
// consulted on recovery in this system -- its only required property is
// that a write completes (or errors) before the Prepare handler returns its
// vote (spec.md §5, "suspension points").
//
// Grounded on FC/storage/log_manager.go's LogManager: a tidwall/wal-backed
// append log with a monotonic LSN counter. Writes are not batched: each
// line is one wal Write under the Log's mutex.
type Log struct {
	mu  sync.Mutex
	lsn uint64
	log *wal.Log
}

// OpenLog opens (creating if needed) the WAL directory for a repository. If
// configs.UseWAL is false, it returns a Log that discards writes -- tests
// that don't care about durability use this to avoid touching disk.
func OpenLog(repositoryID string) (*Log, error) {
	if !configs.UseWAL {
		return &Log{}, nil
	}
	l, err := wal.Open(fmt.Sprintf("./logs/%s", repositoryID), nil)
	if err != nil {
		return nil, err
	}
	lsn, err := l.LastIndex()
	if err != nil {
		return nil, err
	}
	return &Log{log: l, lsn: lsn}, nil
}

// AppendIntent persists the operations-debug/timestamp line written when a
// Prepare is received, before any vote is returned.
func (l *Log) AppendIntent(tid model.TxnID, ops []model.Operation, ts uint64) error {
	return l.append(fmt.Sprintf("%s, %d", debugOps(ops), ts))
}

// AppendVote persists the follow-up operations-debug/vote/timestamp line
// Indep and Coord Prepares write once their vote is decided.
func (l *Log) AppendVote(tid model.TxnID, ops []model.Operation, vote model.Vote, ts uint64) error {
	return l.append(fmt.Sprintf("%s, %s, %d", debugOps(ops), vote, ts))
}

func (l *Log) append(line string) error {
	if l.log == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lsn++
	return l.log.Write(l.lsn, []byte(line))
}

func debugOps(ops []model.Operation) string {
	return configs.JToString(ops)
}
