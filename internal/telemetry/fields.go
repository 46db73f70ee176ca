package telemetry

import "github.com/sirupsen/logrus"

// Fields carries structured context (link number, message type...)
// alongside a log entry. Methods return a new map rather than mutating
// the receiver so a base Fields value can be shared safely.
type Fields map[string]interface{}

func NewFields() Fields { return make(Fields) }

func (f Fields) clone() Fields {
	res := make(Fields, len(f))
	for k, v := range f {
		res[k] = v
	}
	return res
}

func (f Fields) Add(key string, val interface{}) Fields {
	res := f.clone()
	res[key] = val
	return res
}

func (f Fields) Merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	} else if len(f) == 0 {
		return other
	}
	res := f.clone()
	for k, v := range other {
		res[k] = v
	}
	return res
}

func (f Fields) logrus() logrus.Fields {
	return logrus.Fields(f)
}
