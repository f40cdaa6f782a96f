package records

import "context"

// Store is the record-store boundary. Merge operations are upsert-by-merge:
// they create the document when absent and merge fields into it otherwise,
// without requiring a prior read.
type Store interface {
	GetMember(ctx context.Context, orgID, memberID string) (*Member, error)
	MergeMember(ctx context.Context, orgID, memberID string, fields map[string]any) error

	CreatePaymentIntent(ctx context.Context, orgID, memberID string, rec *PaymentIntentRecord) error
	MergePaymentIntent(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error
	ListPaymentIntents(ctx context.Context, orgID, memberID string) ([]PaymentIntentRecord, error)

	MergeDues(ctx context.Context, orgID, memberID string, fields map[string]any) error
	GetDues(ctx context.Context, orgID, memberID string) (map[string]any, error)

	CreateExpense(ctx context.Context, orgID, memberID string, rec *ExpenseRecord) (string, error)
	MergeExpense(ctx context.Context, orgID, memberID, expenseID string, fields map[string]any) error

	// PutDonation writes the donation document keyed by provider intent id.
	// Reusing the intent id as the document id is what makes redelivered
	// success events merge instead of duplicating the donation.
	PutDonation(ctx context.Context, orgID, memberID, intentID string, fields map[string]any) error
	GetDonation(ctx context.Context, orgID, memberID, intentID string) (map[string]any, error)
}
