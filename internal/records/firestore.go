package records

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	fsclient "github.com/dromero-dev/clubfunds-backend/pkg/firestore"
)

const (
	collectionOrganizations  = "organizations"
	collectionMembers        = "members"
	collectionDues           = "dues"
	collectionExpenses       = "expenses"
	collectionPaymentIntents = "payment_intents"
	collectionDonations      = "donations"
)

// FirestoreStore persists records in Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps the shared Firestore client as a Store.
func NewFirestoreStore(client *fsclient.Client) (*FirestoreStore, error) {
	if client == nil || client.Raw() == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	return &FirestoreStore{client: client.Raw()}, nil
}

func (s *FirestoreStore) memberDoc(orgID, memberID string) *firestore.DocumentRef {
	return s.client.
		Collection(collectionOrganizations).Doc(orgID).
		Collection(collectionMembers).Doc(memberID)
}

func (s *FirestoreStore) GetMember(ctx context.Context, orgID, memberID string) (*Member, error) {
	snap, err := s.memberDoc(orgID, memberID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	var member Member
	if err := snap.DataTo(&member); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	if member.ID == "" {
		member.ID = memberID
	}
	if member.OrganizationID == "" {
		member.OrganizationID = orgID
	}
	return &member, nil
}

func (s *FirestoreStore) MergeMember(ctx context.Context, orgID, memberID string, fields map[string]any) error {
	if _, err := s.memberDoc(orgID, memberID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge member: %w", err)
	}
	return nil
}

func (s *FirestoreStore) CreatePaymentIntent(ctx context.Context, orgID, memberID string, rec *PaymentIntentRecord) error {
	doc := s.memberDoc(orgID, memberID).Collection(collectionPaymentIntents).Doc(rec.ID)
	if _, err := doc.Set(ctx, rec); err != nil {
		return fmt.Errorf("create payment intent record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) MergePaymentIntent(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error {
	doc := s.memberDoc(orgID, memberID).Collection(collectionPaymentIntents).Doc(intentID)
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge payment intent record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListPaymentIntents(ctx context.Context, orgID, memberID string) ([]PaymentIntentRecord, error) {
	iter := s.memberDoc(orgID, memberID).
		Collection(collectionPaymentIntents).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	recs := []PaymentIntentRecord{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list payment intents: %w", err)
		}
		var rec PaymentIntentRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("decode payment intent record: %w", err)
		}
		if rec.ID == "" {
			rec.ID = snap.Ref.ID
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *FirestoreStore) MergeDues(ctx context.Context, orgID, memberID string, fields map[string]any) error {
	doc := s.memberDoc(orgID, memberID).Collection(collectionDues).Doc(DuesDocID)
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge dues record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetDues(ctx context.Context, orgID, memberID string) (map[string]any, error) {
	snap, err := s.memberDoc(orgID, memberID).Collection(collectionDues).Doc(DuesDocID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get dues record: %w", err)
	}
	return snap.Data(), nil
}

func (s *FirestoreStore) CreateExpense(ctx context.Context, orgID, memberID string, rec *ExpenseRecord) (string, error) {
	doc := s.memberDoc(orgID, memberID).Collection(collectionExpenses).NewDoc()
	rec.ID = doc.ID
	if _, err := doc.Set(ctx, rec); err != nil {
		return "", fmt.Errorf("create expense record: %w", err)
	}
	return doc.ID, nil
}

func (s *FirestoreStore) MergeExpense(ctx context.Context, orgID, memberID, expenseID string, fields map[string]any) error {
	doc := s.memberDoc(orgID, memberID).Collection(collectionExpenses).Doc(expenseID)
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge expense record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) PutDonation(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error {
	doc := s.memberDoc(orgID, memberID).Collection(collectionDonations).Doc(intentID)
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("put donation record: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetDonation(ctx context.Context, orgID, memberID, intentID string) (map[string]any, error) {
	snap, err := s.memberDoc(orgID, memberID).Collection(collectionDonations).Doc(intentID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get donation record: %w", err)
	}
	return snap.Data(), nil
}
