package status

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nabbar/gcproxy/internal/xerr"
)

// settingRange validates a named Setting's value. min==max==0 with
// noRange==true means "no bound enforced" beyond being an integer
// (e.g. basealtitude, which is a signed reference altitude).
type settingRange struct {
	min, max int
	noRange  bool
	isBool   bool
}

func (r settingRange) validate(v int) error {
	if r.isBool && v != 0 && v != 1 {
		return xerr.New(xerr.KindParse, nil, "must be 0 or 1, got %d", v)
	}
	if !r.noRange && !r.isBool && (v < r.min || v > r.max) {
		return xerr.New(xerr.KindParse, nil, "must be in [%d,%d], got %d", r.min, r.max, v)
	}
	return nil
}

// defaults is the named, typed Settings table and their bounds.
var defaults = map[string]struct {
	value int
	rule  settingRange
}{
	"link":             {value: 1, rule: settingRange{noRange: true}},
	"altreadout":       {value: 10, rule: settingRange{min: 0, max: 1 << 30}},
	"distreadout":      {value: 200, rule: settingRange{min: 0, max: 1 << 30}},
	"battreadout":      {value: 1, rule: settingRange{isBool: true}},
	"basealtitude":     {value: -1, rule: settingRange{noRange: true}},
	"heartbeat":        {value: 1, rule: settingRange{isBool: true}},
	"numcells":         {value: 0, rule: settingRange{min: 0, max: 12}},
	"speech":           {value: 0, rule: settingRange{isBool: true}},
	"mavfwd":           {value: 1, rule: settingRange{isBool: true}},
	"streamrate":       {value: 4, rule: settingRange{min: 0, max: 1 << 20}},
	"streamrate2":      {value: 4, rule: settingRange{min: 0, max: 1 << 20}},
	"heartbeatreport":  {value: 0, rule: settingRange{isBool: true}},
	"radiosetup":       {value: 0, rule: settingRange{isBool: true}},
	"rc1mul":           {value: 1, rule: settingRange{min: -1, max: 1}},
	"rc2mul":           {value: 1, rule: settingRange{min: -1, max: 1}},
	"rc4mul":           {value: 1, rule: settingRange{min: -1, max: 1}},
}

// Settings is the process-lifetime singleton of live-tunable named
// integer options.
type Settings struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewSettings builds a Settings table pre-populated with every
// named default.
func NewSettings() *Settings {
	s := &Settings{values: make(map[string]int, len(defaults))}
	for name, d := range defaults {
		s.values[name] = d.value
	}
	return s
}

// Get returns name's current value and whether it exists.
func (s *Settings) Get(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set validates and assigns value to name (operator `set name val`).
// Unknown names and out-of-range values are rejected with a
// diagnostic rather than panicking.
func (s *Settings) Set(name string, value int) error {
	d, ok := defaults[name]
	if !ok {
		return xerr.New(xerr.KindParse, nil, "unknown setting %q", name)
	}
	if err := d.rule.validate(value); err != nil {
		return fmt.Errorf("setting %q: %w", name, err)
	}
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
	return nil
}

// Names returns every known setting name, sorted, for `set` with no
// arguments.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a snapshot of every setting's current value.
func (s *Settings) All() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
