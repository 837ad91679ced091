package web

import (
	"strings"

	"github.com/matricula/matricula/internal/model"
)

// RegistrationForm mirrors the fields of the registration view.
type RegistrationForm struct {
	Name           string `form:"nome" validate:"required,min=2,max=120"`
	Contact        string `form:"contato" validate:"required,email,max=255"`
	Phone          string `form:"telefone" validate:"required,min=8,max=20"`
	PaymentMethod  string `form:"forma_pagamento" validate:"required,payment_method"`
	EnrollmentDate string `form:"data_matricula" validate:"required,datetime=2006-01-02"`
	PlanEndDate    string `form:"fim_plano" validate:"omitempty,datetime=2006-01-02"`
	MonthlyFee     string `form:"valor_mensalidade" validate:"max=20"`
}

// defaultRegistrationForm is the state the form opens with and resets to.
func defaultRegistrationForm(today model.Date) RegistrationForm {
	return RegistrationForm{
		PaymentMethod:  string(model.PaymentCreditCard),
		EnrollmentDate: today.String(),
		MonthlyFee:     "0",
	}
}

func trimForm(f *RegistrationForm) {
	f.Name = strings.TrimSpace(f.Name)
	f.Contact = strings.TrimSpace(f.Contact)
	f.Phone = strings.TrimSpace(f.Phone)
	f.PlanEndDate = strings.TrimSpace(f.PlanEndDate)
	f.MonthlyFee = strings.TrimSpace(f.MonthlyFee)
}

// check validates f and converts it into an API request.
// Field errors are keyed by form field name.
func (s *Server) check(f RegistrationForm) (model.CreateStudentRequest, map[string]string) {
	fields := s.validator.Validate(&f)
	if fields == nil {
		fields = map[string]string{}
	}

	if _, bad := fields["fim_plano"]; !bad && f.PlanEndDate != "" {
		if end, err := model.ParseDate(f.PlanEndDate); err == nil && end.Before(model.NewDate(s.now())) {
			fields["fim_plano"] = msgPlanEndInPast
		}
	}

	fee, err := model.ParseMoney(f.MonthlyFee)
	if err != nil {
		fields["valor_mensalidade"] = msgInvalidFee
	}

	if len(fields) > 0 {
		return model.CreateStudentRequest{}, fields
	}

	return model.CreateStudentRequest{
		Name:           f.Name,
		Contact:        f.Contact,
		Phone:          f.Phone,
		PaymentMethod:  model.PaymentMethod(f.PaymentMethod),
		EnrollmentDate: f.EnrollmentDate,
		PlanEndDate:    f.PlanEndDate,
		MonthlyFee:     fee,
	}, nil
}
