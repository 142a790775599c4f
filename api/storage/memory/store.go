// api/storage/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
)

type attributeKey struct {
	subject string
	key     string
}

// Store is an in-memory implementation of every storage interface. It backs
// the engine tests and standalone mode; the Neo4j DAOs are the durable
// equivalent.
type Store struct {
	mu            sync.RWMutex
	caps          storage.Capacities
	policies      map[model.PolicyID]model.Policy
	attributes    map[attributeKey]model.Attribute
	subjectKeys   map[string]*model.BoundedSet[string]
	recordDetails map[model.RecordID]model.HealthRecord
	attachments   map[model.RecordID]*model.BoundedSet[model.PolicyID]
}

var (
	_ storage.PolicyStore       = (*Store)(nil)
	_ storage.AttributeStore    = (*Store)(nil)
	_ storage.RecordPolicyStore = (*Store)(nil)
	_ storage.RecordRegistry    = (*Store)(nil)
)

func NewStore(caps storage.Capacities) *Store {
	return &Store{
		caps:          caps,
		policies:      make(map[model.PolicyID]model.Policy),
		attributes:    make(map[attributeKey]model.Attribute),
		subjectKeys:   make(map[string]*model.BoundedSet[string]),
		recordDetails: make(map[model.RecordID]model.HealthRecord),
		attachments:   make(map[model.RecordID]*model.BoundedSet[model.PolicyID]),
	}
}

func (s *Store) GetPolicy(_ context.Context, id model.PolicyID) (*model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[id]
	if !ok {
		return nil, echo_errors.ErrPolicyNotFound
	}
	return clonePolicy(&policy), nil
}

func (s *Store) PutPolicy(_ context.Context, policy *model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies[policy.ID] = *clonePolicy(policy)
	return nil
}

func (s *Store) DeletePolicy(_ context.Context, id model.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return echo_errors.ErrPolicyNotFound
	}
	delete(s.policies, id)
	return nil
}

func (s *Store) HasPolicy(_ context.Context, id model.PolicyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.policies[id]
	return ok, nil
}

func (s *Store) ListPolicies(_ context.Context, limit, offset int) ([]*model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*model.Policy, 0, len(s.policies))
	for id := range s.policies {
		policy := s.policies[id]
		all = append(all, clonePolicy(&policy))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) GetAttribute(_ context.Context, subject, key string) (*model.Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attr, ok := s.attributes[attributeKey{subject, key}]
	if !ok {
		return nil, echo_errors.ErrAttributeNotFound
	}
	return cloneAttribute(&attr), nil
}

func (s *Store) PutAttribute(_ context.Context, attr *model.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.subjectKeys[attr.Subject]
	if !ok {
		keys = model.NewBoundedSet[string](s.caps.AttributesPerSubject)
		s.subjectKeys[attr.Subject] = keys
	}

	// Index capacity is enforced before the row write so a full index
	// leaves the store untouched.
	if err := keys.PushIfAbsent(attr.Key); err != nil {
		return echo_errors.ErrTooManyAttributes
	}

	s.attributes[attributeKey{attr.Subject, attr.Key}] = *cloneAttribute(attr)
	return nil
}

func (s *Store) DeleteAttribute(_ context.Context, subject, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attributes[attributeKey{subject, key}]; !ok {
		return echo_errors.ErrAttributeNotFound
	}
	delete(s.attributes, attributeKey{subject, key})
	if keys, ok := s.subjectKeys[subject]; ok {
		keys.Remove(key)
	}
	return nil
}

func (s *Store) ListAttributes(_ context.Context, subject string) ([]*model.Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.subjectKeys[subject]
	if !ok {
		return nil, nil
	}
	attrs := make([]*model.Attribute, 0, keys.Len())
	for _, key := range keys.Items() {
		if attr, ok := s.attributes[attributeKey{subject, key}]; ok {
			attrs = append(attrs, cloneAttribute(&attr))
		}
	}
	return attrs, nil
}

func (s *Store) AttachedPolicies(_ context.Context, recordID model.RecordID) ([]model.PolicyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attached, ok := s.attachments[recordID]
	if !ok {
		return nil, nil
	}
	return attached.Items(), nil
}

func (s *Store) AttachPolicy(_ context.Context, recordID model.RecordID, policyID model.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attached, ok := s.attachments[recordID]
	if !ok {
		attached = model.NewBoundedSet[model.PolicyID](s.caps.PoliciesPerRecord)
		s.attachments[recordID] = attached
	}
	if err := attached.PushIfAbsent(policyID); err != nil {
		return echo_errors.ErrTooManyPolicies
	}
	return nil
}

func (s *Store) DetachPolicy(_ context.Context, recordID model.RecordID, policyID model.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attached, ok := s.attachments[recordID]; ok {
		attached.Remove(policyID)
	}
	return nil
}

func (s *Store) GetRecord(_ context.Context, id model.RecordID) (*model.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.recordDetails[id]
	if !ok {
		return nil, echo_errors.ErrRecordNotFound
	}
	clone := record
	clone.Tags = append([]string(nil), record.Tags...)
	return &clone, nil
}

func (s *Store) PutRecord(_ context.Context, record *model.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	clone.Tags = append([]string(nil), record.Tags...)
	s.recordDetails[record.ID] = clone
	return nil
}

func clonePolicy(p *model.Policy) *model.Policy {
	clone := *p
	clone.Conditions = make([]model.Condition, len(p.Conditions))
	for i, c := range p.Conditions {
		clone.Conditions[i] = c
		clone.Conditions[i].Value = append([]byte(nil), c.Value...)
	}
	if p.ExpiresAt != nil {
		expires := *p.ExpiresAt
		clone.ExpiresAt = &expires
	}
	return &clone
}

func cloneAttribute(a *model.Attribute) *model.Attribute {
	clone := *a
	clone.Value = append([]byte(nil), a.Value...)
	if a.ExpiresAt != nil {
		expires := *a.ExpiresAt
		clone.ExpiresAt = &expires
	}
	return &clone
}
