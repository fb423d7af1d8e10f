package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ServiceStatus is the last known state of one service.
// FailureReason is only meaningful when Up is false.
type ServiceStatus struct {
	Up            bool      `json:"up"`
	Last          time.Time `json:"last,omitempty"`
	FailureReason string    `json:"failure_reason"`
}

// MarshalJSON omits "last" for statuses that were never stamped.
func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	type wire struct {
		Up            bool       `json:"up"`
		Last          *time.Time `json:"last,omitempty"`
		FailureReason string     `json:"failure_reason"`
	}
	w := wire{Up: s.Up, FailureReason: s.FailureReason}
	if !s.Last.IsZero() {
		last := s.Last
		w.Last = &last
	}
	return json.Marshal(w)
}

// Entry pairs a service name with its status.
type Entry struct {
	Name   string
	Status ServiceStatus
}

// Response maps service names to statuses.
// It is a slice rather than a map so that the key order of the JSON
// object survives decoding; that order is the column order of the board.
type Response []Entry

// Len returns the number of services.
func (r Response) Len() int {
	return len(r)
}

// Get returns the status recorded for name.
func (r Response) Get(name string) (ServiceStatus, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Status, true
		}
	}
	return ServiceStatus{}, false
}

// Names returns the service names in order.
func (r Response) Names() []string {
	names := make([]string, 0, len(r))
	for _, e := range r {
		names = append(names, e.Name)
	}
	return names
}

// MarshalJSON writes the response as a JSON object in entry order.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal status of %s: %w", e.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order.
// A repeated key overwrites the earlier value but keeps its position.
func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read status response: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("status response must be a JSON object, got %v", tok)
	}

	entries := make(Response, 0)
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read service name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in status response", tok)
		}

		var st ServiceStatus
		if err := dec.Decode(&st); err != nil {
			return fmt.Errorf("failed to decode status of %s: %w", name, err)
		}

		if i, seen := index[name]; seen {
			entries[i].Status = st
			continue
		}
		index[name] = len(entries)
		entries = append(entries, Entry{Name: name, Status: st})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to close status response: %w", err)
	}

	*r = entries
	return nil
}

// Decode parses a status response body.
func Decode(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}
