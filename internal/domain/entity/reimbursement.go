package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmcandrew/auction-backoffice/internal/domain/workflow"
)

// ExpenseCategory classifies what a reimbursement was spent on.
type ExpenseCategory string

const (
	CategoryFood                   ExpenseCategory = "FOOD"
	CategoryFuel                   ExpenseCategory = "FUEL"
	CategoryInternalLogistics      ExpenseCategory = "INTERNAL_LOGISTICS"
	CategoryInternationalLogistics ExpenseCategory = "INTERNATIONAL_LOGISTICS"
	CategoryStationary             ExpenseCategory = "STATIONARY"
	CategoryTravel                 ExpenseCategory = "TRAVEL"
	CategoryAccommodation          ExpenseCategory = "ACCOMMODATION"
	CategoryOther                  ExpenseCategory = "OTHER"
)

var validCategories = map[ExpenseCategory]bool{
	CategoryFood:                   true,
	CategoryFuel:                   true,
	CategoryInternalLogistics:      true,
	CategoryInternationalLogistics: true,
	CategoryStationary:             true,
	CategoryTravel:                 true,
	CategoryAccommodation:          true,
	CategoryOther:                  true,
}

// IsValid returns true if the category is known.
func (c ExpenseCategory) IsValid() bool {
	return validCategories[c]
}

// PaymentMethod is how the original expense was paid.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCompanyCard  PaymentMethod = "COMPANY_CARD"
	PaymentMethodPersonalCard PaymentMethod = "PERSONAL_CARD"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentMethodBankTransfer: true,
	PaymentMethodCash:         true,
	PaymentMethodCompanyCard:  true,
	PaymentMethodPersonalCard: true,
}

// IsValid returns true if the payment method is known.
func (m PaymentMethod) IsValid() bool {
	return validPaymentMethods[m]
}

// ReimbursementRequest is a staff expense reimbursement. The gross amount
// is user-entered; tax and net are derived. Status is always the
// workflow.Approvals projection and is persisted in the same transaction
// as the sub-stage change that caused it.
type ReimbursementRequest struct {
	ID                  int64           `json:"id"`
	ReimbursementNumber string          `json:"reimbursement_number"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Category            ExpenseCategory `json:"category"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	PaymentDate         time.Time       `json:"payment_date"`
	Purpose             string          `json:"purpose"`
	RequestedBy         string          `json:"requested_by"`
	HasReceipts         bool            `json:"has_receipts"`

	Status    workflow.State     `json:"status"`
	Approvals workflow.Approvals `json:"approvals"`

	PaymentReference string     `json:"payment_reference,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Paid returns true once payment completion has been recorded.
func (r *ReimbursementRequest) Paid() bool {
	return r.PaidAt != nil
}
