package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Cache is a keyed blob store shared across requests. Generation returns a
// value that changes whenever the host's content cache is invalidated.
type Cache interface {
	Fetch(key string) (blob []byte, ok bool, err error)
	Save(key string, blob []byte) error
	Generation() string
}

// Deleter is implemented by caches that can remove a single key.
type Deleter interface {
	Delete(key string) error
}

// Key derives the cache key of a page's ledger. Mixing in the cache
// generation means ledgers are abandoned together with the content they
// describe.
func Key(namespace, path, generation string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(generation))
	return hex.EncodeToString(h.Sum(nil))
}

// Load fetches the ledger stored under key. A missing key is not an error.
// A blob that no longer decodes is dropped and reported as missing.
func Load(c Cache, key string) (*Ledger, bool, error) {
	blob, ok, err := c.Fetch(key)
	if err != nil || !ok {
		return nil, false, err
	}
	l := New()
	if err := json.Unmarshal(blob, l); err != nil {
		if d, ok := c.(Deleter); ok {
			return nil, false, d.Delete(key)
		}
		return nil, false, nil
	}
	return l, true, nil
}

// Store persists l under key. An empty ledger deletes the key when the cache
// supports it and otherwise overwrites whatever was stored before, so that a
// page which lost its maps does not get its old assets back.
func Store(c Cache, key string, l *Ledger) error {
	if l.Len() == 0 {
		if d, ok := c.(Deleter); ok {
			return d.Delete(key)
		}
	}
	blob, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.Save(key, blob)
}
