package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/matricula/matricula/internal/app"
	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/database"
	"github.com/matricula/matricula/internal/logger"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/service"
)

var names = []string{
	"Ana Souza", "Bruno Lima", "Carla Mendes", "Diego Rocha", "Eduarda Alves",
	"Felipe Costa", "Gabriela Nunes", "Henrique Dias", "Isabela Martins", "João Pereira",
	"Karina Lopes", "Lucas Ribeiro", "Mariana Teixeira", "Nicolas Barbosa", "Olívia Cardoso",
	"Pedro Gomes", "Quésia Araújo", "Rafael Moreira", "Sofia Carvalho", "Thiago Freitas",
	"Úrsula Pinto", "Vinícius Ramos", "Wesley Castro", "Yasmin Correia", "Zeca Monteiro",
}

func main() {
	var count int
	flag.IntVar(&count, "n", 20, "number of students to insert")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	backend, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer backend.Close()

	stores, err := app.NewStores(backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare schema")
	}
	studentService := service.NewStudentService(stores.Students, stores.Payments, nil, log)

	fmt.Printf("=== Seeding %d Students ===\n", count)

	var result *multierror.Error
	created := 0
	for _, req := range seedRequests(count, model.Today()) {
		if _, err := studentService.Create(ctx, 0, req); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", req.Name, err))
			continue
		}
		created++
		if created%10 == 0 {
			fmt.Printf("Created %d students...\n", created)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", created, count)
	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Int("failed", result.Len()).Msg("Some students were not inserted")
	}
}

// seedRequests builds n demo registrations. Payment methods rotate and every
// third student has an open-ended plan.
func seedRequests(n int, today model.Date) []model.CreateStudentRequest {
	reqs := make([]model.CreateStudentRequest, 0, n)
	for i := 0; i < n; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}

		enrolled := model.NewDate(today.AddDate(0, -(i % 12), 0))
		req := model.CreateStudentRequest{
			Name:           name,
			Contact:        fmt.Sprintf("aluno%02d@example.com", i+1),
			Phone:          fmt.Sprintf("119%08d", 10000000+i),
			PaymentMethod:  model.PaymentMethods[i%len(model.PaymentMethods)],
			EnrollmentDate: enrolled.String(),
			MonthlyFee:     model.Money(9990 + 1000*(i%5)),
		}
		if i%3 != 0 {
			req.PlanEndDate = model.NewDate(enrolled.AddDate(1, 0, 0)).String()
		}
		reqs = append(reqs, req)
	}
	return reqs
}
