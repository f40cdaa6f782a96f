package enums

import "testing"

func TestPaymentStatusTransitions(t *testing.T) {
	if PaymentStatusPending.IsTerminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, status := range []PaymentStatus{PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("paid")
	if err != nil || status != PaymentStatusPaid {
		t.Fatalf("expected paid, got %v (%v)", status, err)
	}
	if _, err := ParsePaymentStatus("settled"); err == nil {
		t.Fatalf("unknown status should error")
	}
}

func TestParseExpenseStatus(t *testing.T) {
	status, err := ParseExpenseStatus("reimbursed")
	if err != nil || status != ExpenseStatusReimbursed {
		t.Fatalf("expected reimbursed, got %v (%v)", status, err)
	}
	if ExpenseStatus("archived").IsValid() {
		t.Fatalf("archived is not a valid expense status")
	}
}

func TestParsePaymentType(t *testing.T) {
	typ, err := ParsePaymentType("donation")
	if err != nil || typ != PaymentTypeDonation {
		t.Fatalf("expected donation, got %v (%v)", typ, err)
	}
	if _, err := ParsePaymentType("tip"); err == nil {
		t.Fatalf("unknown type should error")
	}
}
