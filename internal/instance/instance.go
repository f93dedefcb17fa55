// Package instance implements the single-instance lock and address handoff
// a "searcher serve" process uses to avoid starting a second server against
// a directory that already has one running, and to let a short-lived caller
// (e.g. an editor plugin) discover an already-running server's address
// instead of spawning its own. It is a direct Go rendering of sync_lock,
// with_lock, load_connection_params, save_connection_params and ping from
// original_source/src/main.rs, which this spec's distillation dropped.
package instance

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	lockFileName = ".searcher.lock"
	addrFileName = ".searcher.addr"

	// lockWaitInterval mirrors LOCK_WAIT_MILLIS from original_source.
	lockWaitInterval = 100 * time.Millisecond
	// lockMaxWait mirrors original_source's 100x-interval give-up threshold.
	lockMaxWait = 100 * lockWaitInterval
)

// ErrLockTimeout is returned by Acquire when the lock could not be obtained
// within lockMaxWait.
var ErrLockTimeout = errors.New("instance: timed out acquiring lock")

// Acquire creates dir's lock file exclusively, retrying every
// lockWaitInterval until it succeeds or lockMaxWait elapses. The returned
// release func removes the lock file and must be called exactly once.
func Acquire(dir string) (release func(), err error) {
	lock := filepath.Join(dir, lockFileName)
	deadline := time.Now().Add(lockMaxWait)
	for {
		f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { os.Remove(lock) }, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "instance: failed to create lock file")
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		time.Sleep(lockWaitInterval)
	}
}

// ConnectionParams is the JSON handoff payload, equivalent to
// original_source's params::ConnectionParams.
type ConnectionParams struct {
	Address string `json:"address"`
	PID     int    `json:"pid"`
}

// LoadAddress reads dir's handoff file under the lock. It returns false if
// no handoff file exists or it cannot be parsed.
func LoadAddress(dir string) (string, bool) {
	release, err := Acquire(dir)
	if err != nil {
		return "", false
	}
	defer release()

	bytes, err := os.ReadFile(filepath.Join(dir, addrFileName))
	if err != nil {
		return "", false
	}
	var params ConnectionParams
	if err := json.Unmarshal(bytes, &params); err != nil {
		return "", false
	}
	return params.Address, params.Address != ""
}

// SaveAddress writes dir's handoff file under the lock, recording addr and
// the current process id.
func SaveAddress(dir, addr string) error {
	release, err := Acquire(dir)
	if err != nil {
		return err
	}
	defer release()

	bytes, err := json.Marshal(ConnectionParams{Address: addr, PID: os.Getpid()})
	if err != nil {
		return errors.Wrap(err, "instance: failed to encode connection params")
	}
	return os.WriteFile(filepath.Join(dir, addrFileName), bytes, 0o644)
}

// Ping reports whether addr's /ping endpoint answers successfully within a
// short timeout, the Go equivalent of original_source's ping function (used
// to decide whether a previously saved address is still a live server
// rather than a stale handoff left by a crashed process).
func Ping(addr string) bool {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/ping")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
