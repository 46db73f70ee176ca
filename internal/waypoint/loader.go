// Package waypoint implements the Waypoint Loader: the upload state
// machine, the download path's sequential-request bookkeeping, and a
// small QGC WPL 110-dialect file format (kept in lieu of an external
// waypoint-file library — see DESIGN.md).
package waypoint

import (
	"sync"
	"time"

	"github.com/nabbar/gcproxy/internal/codec"
)

// Op is the Waypoint Loader's one-shot operation state.
type Op int

const (
	OpNone Op = iota
	OpList
	OpSave
	OpUpload
)

// UploadState is Idle/Loaded/Uploading state machine.
type UploadState int

const (
	Idle UploadState = iota
	Loaded
	Uploading
)

const uploadInactivityTimeout = 10 * time.Second

// Loader is the process's single Waypoint Loader, reused across ops
// and cleared at the start of each download.
type Loader struct {
	mu sync.Mutex

	items           []codec.WaypointItem
	expectedCount   int
	targetSystem    uint8
	targetComponent uint8

	op    Op
	state UploadState

	savePath     string // pending `wp save <file>` destination, set at download start
	lastActivity time.Time
}

func NewLoader() *Loader {
	return &Loader{}
}

// Count returns the number of waypoints currently held.
func (l *Loader) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the held waypoint list.
func (l *Loader) Items() []codec.WaypointItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]codec.WaypointItem, len(l.items))
	copy(out, l.items)
	return out
}

// StartDownload clears the loader and primes it to collect a fresh
// download: every download starts from an empty list. savePath is
// non-empty only for `wp save <file>`.
func (l *Loader) StartDownload(op Op, savePath string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.expectedCount = 0
	l.op = op
	l.savePath = savePath
}

// SetExpectedCount applies an inbound WAYPOINT_COUNT/MISSION_COUNT.
func (l *Loader) SetExpectedCount(count int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expectedCount = count
}

func (l *Loader) ExpectedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expectedCount
}

func (l *Loader) Op() Op {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.op
}

// SavePath returns the pending `wp save` destination, if any.
func (l *Loader) SavePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.savePath
}

// AppendDownloaded applies WAYPOINT/MISSION_ITEM
// download-path rule: seq > count() is unexpected (caller should log);
// seq == count() appends; seq < count() is a duplicate and ignored.
// Returns (appended, unexpected, done) where unexpected reports a seq
// beyond count() and done reports the list is complete.
func (l *Loader) AppendDownloaded(wp codec.WaypointItem) (appended, unexpected, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.items)
	switch {
	case int(wp.Seq) > n:
		return false, true, false
	case int(wp.Seq) < n:
		return false, false, l.expectedCount > 0 && n >= l.expectedCount
	}
	l.items = append(l.items, wp)
	done = len(l.items) >= l.expectedCount
	if done {
		l.op = OpNone
	}
	return true, false, done
}

// Clear resets the loader to holding nothing, op None (operator
// `wp clear`, or internal reset after completion/failure).
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.expectedCount = 0
	l.op = OpNone
	l.savePath = ""
}

// StartUpload enters the Uploading state with the given target
// identity and waypoint list (operator `wp load <file>`). Returns
// false if count==0 (caller stays in Idle).
func (l *Loader) StartUpload(items []codec.WaypointItem, targetSys, targetComp uint8, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	l.targetSystem = targetSys
	l.targetComponent = targetComp
	if len(items) == 0 {
		l.state = Idle
		return false
	}
	l.state = Uploading
	l.lastActivity = now
	return true
}

func (l *Loader) State() UploadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader) SetState(s UploadState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}

// ServiceRequest implements per-WAYPOINT_REQUEST rule.
// It reports whether the request should be serviced (wp, ok==true) and
// whether servicing it completes the upload (done), or whether the
// 10s inactivity timeout fired (timedOut) — in which case the caller
// must abandon back to Idle without sending anything.
func (l *Loader) ServiceRequest(seq int, now time.Time) (wp codec.WaypointItem, ok, done, timedOut bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastActivity) > uploadInactivityTimeout {
		l.state = Idle
		return codec.WaypointItem{}, false, false, true
	}
	if seq < 0 || seq >= len(l.items) {
		return codec.WaypointItem{}, false, false, false
	}
	l.lastActivity = now
	wp = l.items[seq]
	if seq == len(l.items)-1 {
		l.state = Idle
		done = true
	}
	return wp, true, done, false
}

func (l *Loader) TargetIdentity() (sys, comp uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.targetSystem, l.targetComponent
}
