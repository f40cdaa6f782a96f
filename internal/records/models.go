// Package records is the persistence boundary: a hierarchical document store
// laid out as organizations/{orgId}/members/{memberId}/{collection}/{docId}
// for the collections dues, expenses, payment_intents and donations, with the
// member profile living at the member document itself.
package records

import (
	"errors"
	"time"

	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("record not found")

// Member is a payer within an organization. The provider references are
// attached lazily: the customer id on first charge attempt, the account id
// out of band when the member connects a payout destination.
type Member struct {
	ID               string `firestore:"id"`
	OrganizationID   string `firestore:"organization_id"`
	Name             string `firestore:"name"`
	Email            string `firestore:"email"`
	StripeCustomerID string `firestore:"stripe_customer_id,omitempty"`
	StripeAccountID  string `firestore:"stripe_account_id,omitempty"`
}

// PaymentIntentRecord is the local mirror of one provider payment intent.
// The document id is the provider intent id; status is mutated only by
// reconciliation and never moves out of a terminal state.
type PaymentIntentRecord struct {
	ID             string              `firestore:"id"`
	AmountCents    int64               `firestore:"amount_cents"`
	Currency       string              `firestore:"currency"`
	Status         enums.PaymentStatus `firestore:"status"`
	Description    string              `firestore:"description"`
	PaymentType    enums.PaymentType   `firestore:"payment_type"`
	MemberID       string              `firestore:"member_id"`
	OrganizationID string              `firestore:"organization_id"`
	MemberName     string              `firestore:"member_name"`
	CreatedAt      time.Time           `firestore:"created_at"`
}

// ExpenseRecord is a reimbursable expense claim. Amounts are major-currency
// decimals stored as floats, matching what the front end reads back.
type ExpenseRecord struct {
	ID               string              `firestore:"id"`
	Submitter        string              `firestore:"submitter"`
	Amount           float64             `firestore:"amount"`
	Category         string              `firestore:"category"`
	Description      string              `firestore:"description"`
	Date             time.Time           `firestore:"date"`
	Status           enums.ExpenseStatus `firestore:"status"`
	ReceiptURL       string              `firestore:"receipt_url,omitempty"`
	StripeTransferID string              `firestore:"stripe_transfer_id,omitempty"`
	ReimbursedDate   *time.Time          `firestore:"reimbursed_date,omitempty"`
}

// DuesDocID is the single dues document per member. There is deliberately no
// period dimension; each relevant event merges into the current record.
const DuesDocID = "current"
