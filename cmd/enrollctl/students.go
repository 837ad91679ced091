package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/validator"
)

func newStudentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"alunos"},
		Short:   "List, register and export students",
	}
	cmd.AddCommand(
		newStudentsListCmd(a),
		newStudentsAddCmd(a),
		newStudentsStatusCmd(a),
		newStudentsDelinquentCmd(a),
		newStudentsExportCmd(a),
	)
	return cmd
}

func newStudentsListCmd(a *app) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.token()
			if err != nil {
				return err
			}
			result, err := a.api.ListStudents(cmd.Context(), token, page, perPage)
			if err != nil {
				return a.fail(err, "Erro ao carregar alunos")
			}
			writeStudents(a.out, result.Students)
			if result.TotalPages > 0 {
				fmt.Fprintf(a.out, "\npage %d of %d (%d students)\n", result.Page, result.TotalPages, result.TotalItems)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 50, "students per page")
	return cmd
}

// studentFlags mirror the registration form; validate tags reuse the form rules.
type studentFlags struct {
	Name           string `form:"name" validate:"required,min=2,max=120"`
	Contact        string `form:"contact" validate:"required,email,max=255"`
	Phone          string `form:"phone" validate:"required,min=8,max=20"`
	PaymentMethod  string `form:"payment-method" validate:"required,payment_method"`
	EnrollmentDate string `form:"enrolled" validate:"required,datetime=2006-01-02"`
	PlanEndDate    string `form:"plan-end" validate:"omitempty,datetime=2006-01-02"`
	MonthlyFee     string `form:"fee" validate:"max=20"`
}

// request validates the flags and builds the API payload. today is the
// earliest accepted plan end.
func (f studentFlags) request(today model.Date) (model.CreateStudentRequest, error) {
	fields := validator.New().Validate(&f)
	if fields == nil {
		fields = map[string]string{}
	}
	if _, bad := fields["plan-end"]; !bad && f.PlanEndDate != "" {
		if end, err := model.ParseDate(f.PlanEndDate); err == nil && end.Before(today) {
			fields["plan-end"] = "plan end cannot be in the past"
		}
	}
	fee, err := model.ParseMoney(f.MonthlyFee)
	if err != nil {
		fields["fee"] = "fee must be an amount such as 150,00"
	}

	if len(fields) > 0 {
		var b strings.Builder
		b.WriteString("invalid flags:")
		for _, name := range []string{"name", "contact", "phone", "payment-method", "enrolled", "plan-end", "fee"} {
			if msg, ok := fields[name]; ok {
				fmt.Fprintf(&b, "\n  --%s: %s", name, msg)
			}
		}
		return model.CreateStudentRequest{}, errors.New(b.String())
	}

	return model.CreateStudentRequest{
		Name:           strings.TrimSpace(f.Name),
		Contact:        strings.TrimSpace(f.Contact),
		Phone:          strings.TrimSpace(f.Phone),
		PaymentMethod:  model.PaymentMethod(f.PaymentMethod),
		EnrollmentDate: f.EnrollmentDate,
		PlanEndDate:    f.PlanEndDate,
		MonthlyFee:     fee,
	}, nil
}

func newStudentsAddCmd(a *app) *cobra.Command {
	today := model.Today()
	f := studentFlags{
		PaymentMethod:  string(model.PaymentCreditCard),
		EnrollmentDate: today.String(),
		MonthlyFee:     "0",
	}

	methods := make([]string, len(model.PaymentMethods))
	for i, m := range model.PaymentMethods {
		methods[i] = string(m)
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.token()
			if err != nil {
				return err
			}
			req, err := f.request(today)
			if err != nil {
				return err
			}
			st, err := a.api.CreateStudent(cmd.Context(), token, req)
			if err != nil {
				return a.fail(err, "Erro ao cadastrar aluno")
			}
			fmt.Fprintf(a.out, "Aluno cadastrado com sucesso! (id %d)\n", st.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.Name, "name", "", "full name")
	flags.StringVar(&f.Contact, "contact", "", "e-mail address")
	flags.StringVar(&f.Phone, "phone", "", "phone number")
	flags.StringVar(&f.PaymentMethod, "payment-method", f.PaymentMethod, "one of: "+strings.Join(methods, ", "))
	flags.StringVar(&f.EnrollmentDate, "enrolled", f.EnrollmentDate, "enrollment date (YYYY-MM-DD)")
	flags.StringVar(&f.PlanEndDate, "plan-end", "", "plan end date (YYYY-MM-DD)")
	flags.StringVar(&f.MonthlyFee, "fee", f.MonthlyFee, "monthly fee, e.g. 150,00")
	return cmd
}

func newStudentsStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a student and their payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return fmt.Errorf("invalid student id %q", args[0])
			}
			token, err := a.token()
			if err != nil {
				return err
			}
			status, err := a.api.StudentStatus(cmd.Context(), token, id)
			if err != nil {
				return a.fail(err, "Aluno não encontrado")
			}

			writeStudents(a.out, []model.Student{status.Student})
			fmt.Fprintln(a.out)
			if len(status.Payments) == 0 {
				fmt.Fprintln(a.out, "No payments recorded")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PAYMENT\tPERIOD\tPAID AT")
			for _, p := range status.Payments {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Period, p.PaidAt.Local().Format("02/01/2006 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newStudentsDelinquentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delinquent",
		Short: "List students without any recorded payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.token()
			if err != nil {
				return err
			}
			students, err := a.api.ListDelinquent(cmd.Context(), token)
			if err != nil {
				return a.fail(err, "Erro ao carregar alunos")
			}
			writeStudents(a.out, students)
			return nil
		},
	}
}

func newStudentsExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the student roster as XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.token()
			if err != nil {
				return err
			}
			body, disposition, err := a.api.ExportStudents(cmd.Context(), token)
			if err != nil {
				return a.fail(err, "Erro ao exportar alunos")
			}
			defer body.Close()

			if output == "" {
				output = exportFilename(disposition, time.Now())
			}
			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			n, err := io.Copy(f, body)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(a.out, "Wrote %s (%d bytes)\n", output, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: server-suggested name)")
	return cmd
}

// exportFilename takes the name from Content-Disposition, falling back to a
// dated default.
func exportFilename(disposition string, now time.Time) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" && !strings.ContainsAny(name, `/\`) {
			return name
		}
	}
	return "alunos-" + now.Format("20060102") + ".xlsx"
}

func writeStudents(w io.Writer, students []model.Student) {
	if len(students) == 0 {
		fmt.Fprintln(w, "Nenhum aluno encontrado.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tCONTATO\tTELEFONE\tPAGAMENTO\tMATRÍCULA\tFIM DO PLANO\tMENSALIDADE")
	for _, s := range students {
		end := "-"
		if s.PlanEndDate != nil {
			end = s.PlanEndDate.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Contact, s.Phone, s.PaymentMethod, s.EnrollmentDate.String(), end, s.MonthlyFee.String())
	}
	_ = tw.Flush()
}
