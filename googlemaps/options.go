package googlemaps

import (
	"bytes"
	"encoding/json"
)

// Options is a JSON object that remembers the order its members were set in.
// The zero value is an empty object ready to use.
type Options struct {
	keys   []string
	values map[string]any
}

func (o *Options) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o Options) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o Options) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o Options) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o Options) Len() int {
	return len(o.keys)
}

func (o Options) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte(':')
		b, err = json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
