package controllers

import (
	"context"
	"net/http"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
	"github.com/dromero-dev/clubfunds-backend/api/validators"
	"github.com/dromero-dev/clubfunds-backend/internal/expenses"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

type ExpensesService interface {
	Submit(ctx context.Context, input expenses.SubmitInput) (*expenses.SubmitResult, error)
	ProcessReimbursement(ctx context.Context, input expenses.ReimburseInput) (*expenses.ReimburseResult, error)
}

type submitExpenseRequest struct {
	SubmitterName  string  `json:"submitterName" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Category       string  `json:"category" validate:"required"`
	Description    string  `json:"description" validate:"required"`
	MemberID       string  `json:"memberId" validate:"required"`
	OrganizationID string  `json:"organizationId" validate:"required"`
	ReceiptURL     string  `json:"receiptUrl" validate:"omitempty,url"`
}

type reimburseRequest struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	MemberID       string  `json:"memberId" validate:"required"`
	OrganizationID string  `json:"organizationId" validate:"required"`
	Description    string  `json:"description" validate:"required"`
	ReceiptURL     string  `json:"receiptUrl" validate:"omitempty,url"`
	ExpenseID      string  `json:"expenseId" validate:"required"`
}

// SubmitExpense records an expense claim and, when the provider is
// configured, issues the payment intent that charges the member for it.
func SubmitExpense(svc ExpensesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expenses service unavailable"))
			return
		}

		var req submitExpenseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithMemberID(ctx, req.MemberID)
			ctx = logg.WithOrganizationID(ctx, req.OrganizationID)
		}

		result, err := svc.Submit(ctx, expenses.SubmitInput{
			SubmitterName:  req.SubmitterName,
			Amount:         req.Amount,
			Category:       req.Category,
			Description:    req.Description,
			MemberID:       req.MemberID,
			OrganizationID: req.OrganizationID,
			ReceiptURL:     req.ReceiptURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"expenseId":       result.ExpenseID,
			"paymentIntentId": result.PaymentIntentID,
			"clientSecret":    result.ClientSecret,
			"message":         result.Message,
		})
	}
}

// ProcessReimbursement transfers the approved amount to the member's payout
// account and marks the expense reimbursed.
func ProcessReimbursement(svc ExpensesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expenses service unavailable"))
			return
		}

		var req reimburseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithMemberID(ctx, req.MemberID)
			ctx = logg.WithOrganizationID(ctx, req.OrganizationID)
		}

		result, err := svc.ProcessReimbursement(ctx, expenses.ReimburseInput{
			Amount:         req.Amount,
			MemberID:       req.MemberID,
			OrganizationID: req.OrganizationID,
			Description:    req.Description,
			ReceiptURL:     req.ReceiptURL,
			ExpenseID:      req.ExpenseID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"transferId": result.TransferID,
			"message":    result.Message,
		})
	}
}
