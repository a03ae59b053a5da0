package types

import "time"

// TaggedEntity is a snapshot as the compliance engine sees it: an ID plus
// its tags folded into a unique-key map. Entities are never mutated in
// place - remediation is verified by a fresh scan, not by patching the
// in-memory copy.
type TaggedEntity struct {
	ID        string            `json:"id"`
	Tags      map[string]string `json:"tags"`
	VolumeID  string            `json:"volume_id,omitempty"`
	SizeGB    int32             `json:"size_gb,omitempty"`
	Encrypted bool              `json:"encrypted,omitempty"`
	StartedAt time.Time         `json:"started_at,omitzero"`
}

// HasTag reports whether the entity carries the exact key.
func (e TaggedEntity) HasTag(key string) bool {
	_, ok := e.Tags[key]
	return ok
}

// TagValue returns the value for key and whether it was present.
func (e TaggedEntity) TagValue(key string) (string, bool) {
	v, ok := e.Tags[key]
	return v, ok
}
