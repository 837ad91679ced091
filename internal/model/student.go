package model

import "time"

// PaymentMethod is how a student pays the monthly fee.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "Cartão de Crédito"
	PaymentDebitCard  PaymentMethod = "Cartão de Débito"
	PaymentBoleto     PaymentMethod = "Boleto"
	PaymentPix        PaymentMethod = "Pix"
	PaymentCash       PaymentMethod = "Dinheiro"
)

// PaymentMethods lists every accepted method in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentBoleto,
	PaymentPix,
	PaymentCash,
}

// Valid reports whether m is one of PaymentMethods.
func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Student represents an enrolled student.
type Student struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Contact        string        `json:"contact"`
	Phone          string        `json:"phone"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	EnrollmentDate Date          `json:"enrollment_date"`
	PlanEndDate    *Date         `json:"plan_end_date"`
	MonthlyFee     Money         `json:"monthly_fee"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CreateStudentRequest is the payload for registering a new student.
// MonthlyFee is expressed in cents.
type CreateStudentRequest struct {
	Name           string        `json:"name" binding:"required,min=2,max=120"`
	Contact        string        `json:"contact" binding:"required,email,max=255"`
	Phone          string        `json:"phone" binding:"required,min=8,max=20"`
	PaymentMethod  PaymentMethod `json:"payment_method" binding:"required,payment_method"`
	EnrollmentDate string        `json:"enrollment_date" binding:"required,datetime=2006-01-02"`
	PlanEndDate    string        `json:"plan_end_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	MonthlyFee     Money         `json:"monthly_fee" binding:"min=0"`
}

// StudentStatus is a student together with the payments recorded for them.
type StudentStatus struct {
	Student  Student   `json:"student"`
	Payments []Payment `json:"payments"`
}
