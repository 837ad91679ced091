package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/matricula/matricula/internal/model"
)

// RosterSheet is the worksheet name of the exported roster.
const RosterSheet = "Alunos"

var rosterHeader = []interface{}{
	"ID", "Nome", "Contato", "Telefone", "Forma de Pagamento",
	"Data de Matrícula", "Fim do Plano", "Mensalidade",
}

// ExportService renders the student roster as an XLSX workbook.
type ExportService struct {
	students StudentStore
}

// NewExportService creates a new ExportService.
func NewExportService(students StudentStore) *ExportService {
	return &ExportService{students: students}
}

// WriteRoster writes every student to w as an XLSX workbook.
func (s *ExportService) WriteRoster(ctx context.Context, w io.Writer) error {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(RosterSheet, "A1", &rosterHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, st := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rosterRow(st)
		if err := f.SetSheetRow(RosterSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rosterRow(st model.Student) []interface{} {
	planEnd := ""
	if st.PlanEndDate != nil {
		planEnd = st.PlanEndDate.String()
	}
	return []interface{}{
		st.ID,
		st.Name,
		st.Contact,
		st.Phone,
		string(st.PaymentMethod),
		st.EnrollmentDate.String(),
		planEnd,
		st.MonthlyFee.String(),
	}
}
