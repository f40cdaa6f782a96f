package records

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
)

// MemoryStore is an in-process Store used when no Firestore project is
// configured (demo mode) and by package tests. Nothing survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	members   map[string]*Member
	intents   map[string][]PaymentIntentRecord
	dues      map[string]map[string]any
	expenses  map[string]map[string]map[string]any
	donations map[string]map[string]map[string]any
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:   make(map[string]*Member),
		intents:   make(map[string][]PaymentIntentRecord),
		dues:      make(map[string]map[string]any),
		expenses:  make(map[string]map[string]map[string]any),
		donations: make(map[string]map[string]map[string]any),
	}
}

func memberKey(orgID, memberID string) string {
	return orgID + "/" + memberID
}

// SeedMember installs a member profile, standing in for the out-of-scope
// onboarding flow.
func (s *MemoryStore) SeedMember(member *Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *member
	s.members[memberKey(member.OrganizationID, member.ID)] = &copied
}

func (s *MemoryStore) GetMember(ctx context.Context, orgID, memberID string) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[memberKey(orgID, memberID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *member
	return &copied, nil
}

func (s *MemoryStore) MergeMember(ctx context.Context, orgID, memberID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	member, ok := s.members[key]
	if !ok {
		member = &Member{ID: memberID, OrganizationID: orgID}
		s.members[key] = member
	}
	for field, value := range fields {
		str, _ := value.(string)
		switch field {
		case "name":
			member.Name = str
		case "email":
			member.Email = str
		case "stripe_customer_id":
			member.StripeCustomerID = str
		case "stripe_account_id":
			member.StripeAccountID = str
		}
	}
	return nil
}

func (s *MemoryStore) CreatePaymentIntent(ctx context.Context, orgID, memberID string, rec *PaymentIntentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	s.intents[key] = append(s.intents[key], *rec)
	return nil
}

func (s *MemoryStore) MergePaymentIntent(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	for i := range s.intents[key] {
		if s.intents[key][i].ID != intentID {
			continue
		}
		switch status := fields["status"].(type) {
		case enums.PaymentStatus:
			s.intents[key][i].Status = status
		case string:
			s.intents[key][i].Status = enums.PaymentStatus(status)
		}
		return nil
	}
	// Merge semantics create the mirror when the issuance write was lost.
	s.intents[key] = append(s.intents[key], PaymentIntentRecord{ID: intentID, MemberID: memberID, OrganizationID: orgID})
	return nil
}

func (s *MemoryStore) ListPaymentIntents(ctx context.Context, orgID, memberID string) ([]PaymentIntentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	recs := make([]PaymentIntentRecord, len(s.intents[key]))
	copy(recs, s.intents[key])
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *MemoryStore) MergeDues(ctx context.Context, orgID, memberID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	doc, ok := s.dues[key]
	if !ok {
		doc = make(map[string]any)
		s.dues[key] = doc
	}
	for field, value := range fields {
		doc[field] = value
	}
	return nil
}

func (s *MemoryStore) GetDues(ctx context.Context, orgID, memberID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.dues[memberKey(orgID, memberID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make(map[string]any, len(doc))
	for field, value := range doc {
		copied[field] = value
	}
	return copied, nil
}

func (s *MemoryStore) CreateExpense(ctx context.Context, orgID, memberID string, rec *ExpenseRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	if s.expenses[key] == nil {
		s.expenses[key] = make(map[string]map[string]any)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.expenses[key][rec.ID] = map[string]any{
		"id":          rec.ID,
		"submitter":   rec.Submitter,
		"amount":      rec.Amount,
		"category":    rec.Category,
		"description": rec.Description,
		"date":        rec.Date,
		"status":      rec.Status.String(),
		"receipt_url": rec.ReceiptURL,
	}
	return rec.ID, nil
}

func (s *MemoryStore) MergeExpense(ctx context.Context, orgID, memberID, expenseID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	if s.expenses[key] == nil {
		s.expenses[key] = make(map[string]map[string]any)
	}
	doc, ok := s.expenses[key][expenseID]
	if !ok {
		doc = map[string]any{"id": expenseID}
		s.expenses[key][expenseID] = doc
	}
	for field, value := range fields {
		if str, ok := value.(fmt.Stringer); ok {
			doc[field] = str.String()
			continue
		}
		doc[field] = value
	}
	return nil
}

// GetExpense is a test/demo convenience not present on the Store interface.
func (s *MemoryStore) GetExpense(orgID, memberID, expenseID string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.expenses[memberKey(orgID, memberID)][expenseID]
	return doc, ok
}

func (s *MemoryStore) PutDonation(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(orgID, memberID)
	if s.donations[key] == nil {
		s.donations[key] = make(map[string]map[string]any)
	}
	doc, ok := s.donations[key][intentID]
	if !ok {
		doc = make(map[string]any)
		s.donations[key][intentID] = doc
	}
	for field, value := range fields {
		doc[field] = value
	}
	return nil
}

func (s *MemoryStore) GetDonation(ctx context.Context, orgID, memberID, intentID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.donations[memberKey(orgID, memberID)][intentID]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// DonationCount reports how many donation documents exist for the member.
func (s *MemoryStore) DonationCount(orgID, memberID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.donations[memberKey(orgID, memberID)])
}
