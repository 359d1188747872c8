package core

import (
	"bytes"
	"encoding/json"
)

// URLVerdicts maps URLs to scanner verdicts, preserving first-occurrence
// order. URLs are kept exactly as the model supplied them, without
// normalization. The map only grows within a run; a verdict recorded for a
// URL is never replaced. Not safe for concurrent use: each detection run
// owns its own instance.
type URLVerdicts struct {
	order    []string
	verdicts map[string]string
}

// NewURLVerdicts creates an empty verdict map
func NewURLVerdicts() *URLVerdicts {
	return &URLVerdicts{verdicts: make(map[string]string)}
}

// Get returns the recorded verdict for a URL
func (u *URLVerdicts) Get(url string) (string, bool) {
	v, ok := u.verdicts[url]
	return v, ok
}

// Record stores the verdict for a URL on first resolution.
// A later Record for the same URL is a no-op.
func (u *URLVerdicts) Record(url, verdict string) {
	if _, ok := u.verdicts[url]; ok {
		return
	}
	u.order = append(u.order, url)
	u.verdicts[url] = verdict
}

// Len returns the number of distinct URLs recorded
func (u *URLVerdicts) Len() int {
	return len(u.order)
}

// URLs returns the recorded URLs in first-occurrence order
func (u *URLVerdicts) URLs() []string {
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// MarshalJSON renders the map as a JSON object with keys in
// first-occurrence order
func (u *URLVerdicts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, url := range u.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(url)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(u.verdicts[url])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the map from a JSON object, keeping key order
func (u *URLVerdicts) UnmarshalJSON(data []byte) error {
	u.order = nil
	u.verdicts = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		url := keyTok.(string)
		var verdict string
		if err := dec.Decode(&verdict); err != nil {
			return err
		}
		u.Record(url, verdict)
	}
	_, err := dec.Token() // closing brace
	return err
}
