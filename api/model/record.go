// api/model/record.go
package model

// RecordID identifies a protected health record in the registry.
type RecordID string

// HealthRecord is the registry's view of a protected record: just enough to
// authorize attach/detach (existence and ownership). Record content, storage
// and versioning live outside this service.
type HealthRecord struct {
	ID        RecordID `json:"id"`
	Owner     string   `json:"owner"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt uint64   `json:"created_at"`
}
