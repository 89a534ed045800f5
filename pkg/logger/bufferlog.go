// Package logger implements a per-record in-memory log buffer.
//
// Detail lines are buffered while a flight record is being processed.
// If processing fails, the buffer is replayed followed by the final error,
// so the operator sees the full story of exactly the record that broke.
// If processing succeeds, the buffer is dropped and one short line is
// printed.
//
// Thread safety comes from a dedicated logger goroutine and a command
// channel; no mutexes.
package logger

import (
	"bytes"
	"log"
	"strings"
	"time"
)

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
)

type cmd struct {
	act      action
	dataID   string
	message  string    // for Append
	artifact string    // for Success
	err      error     // for FlushError
	when     time.Time // arrival order marker
}

// Commands only ever flow through this channel; the buffer lives in the
// runloop goroutine.
var ch = make(chan cmd, 128)

// Begin starts buffering detail lines for a record.
func Begin(dataID string) { ch <- cmd{act: actBegin, dataID: dataID, when: time.Now()} }

// Append adds one detail line to the record's buffer.  Without a prior
// Begin, the line is printed immediately.
func Append(dataID, msg string) {
	ch <- cmd{act: actAppend, dataID: dataID, message: msg, when: time.Now()}
}

// Success drops the buffer and prints one short confirmation line.
func Success(dataID, artifact string) {
	ch <- cmd{act: actSuccess, dataID: dataID, artifact: artifact, when: time.Now()}
}

// FlushError replays the buffered detail lines and prints the final error.
func FlushError(dataID string, err error) {
	ch <- cmd{act: actFlushErr, dataID: dataID, err: err, when: time.Now()}
}

func init() { go runloop() }

func runloop() {
	buffers := make(map[string]*bytes.Buffer)

	for c := range ch {
		switch c.act {
		case actBegin:
			buffers[c.dataID] = &bytes.Buffer{}

		case actAppend:
			if b := buffers[c.dataID]; b != nil {
				_, _ = b.WriteString(c.message + "\n")
			} else {
				log.Print(c.message)
			}

		case actSuccess:
			log.Printf("[%s] ✔ processed, artifact %q", c.dataID, c.artifact)
			delete(buffers, c.dataID)

		case actFlushErr:
			if b := buffers[c.dataID]; b != nil {
				lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
				for _, ln := range lines {
					log.Print(ln)
				}
				delete(buffers, c.dataID)
			}
			log.Printf("[%s] ERROR: %v", c.dataID, c.err)
		}
	}
}
