package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	authPostgres "github.com/frahmantamala/feedback-management/internal/auth/postgres"
	"github.com/frahmantamala/feedback-management/internal/core/events"
	"github.com/frahmantamala/feedback-management/internal/designation"
	designationPostgres "github.com/frahmantamala/feedback-management/internal/designation/postgres"
	employeePostgres "github.com/frahmantamala/feedback-management/internal/employee/postgres"
	"github.com/frahmantamala/feedback-management/internal/question"
	questionPostgres "github.com/frahmantamala/feedback-management/internal/question/postgres"
	"github.com/frahmantamala/feedback-management/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedAdminUsername string
	seedAdminPassword string
)

var seedDesignations = []string{"Engineer", "Senior Engineer", "Manager", "Trainer"}

var seedQuestions = []question.CreateQuestionDTO{
	{Text: "How clearly does this person communicate?", FeedbackType: question.TypeEmployee, Order: 1},
	{Text: "How well does this person collaborate with the team?", FeedbackType: question.TypeEmployee, Order: 2},
	{Text: "How reliably does this person deliver on commitments?", FeedbackType: question.TypeEmployee, Order: 3},
	{Text: "How well did the trainer explain the material?", FeedbackType: question.TypeTrainer, Order: 1},
	{Text: "How useful was the session for your daily work?", FeedbackType: question.TypeTrainer, Order: 2},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with reference data and an admin account",
	Long:  `Seed designations, feedback questions and an administrator. Running it twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
		lg := logger.LoggerWrapper()

		db, gdb, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		bus := events.NewEventBus(lg)
		events.RegisterAuditHandlers(bus, lg)
		defer bus.Wait()

		designations := designation.NewService(designationPostgres.NewDesignationRepository(gdb), lg)
		for _, name := range seedDesignations {
			if _, err := designations.Create(ctx, designation.CreateDesignationDTO{Name: name}); err != nil && !isConflict(err) {
				return fmt.Errorf("seed designation %s: %w", name, err)
			}
		}

		if err := seedQuestionBank(ctx, question.NewService(questionPostgres.NewQuestionRepository(gdb), lg)); err != nil {
			return err
		}

		authRepo := authPostgres.NewRepository(gdb, employeePostgres.NewEmployeeRepository(gdb, db))
		tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTAccessSecret, cfg.Security.JWTRefreshSecret,
			cfg.Security.AccessTokenDuration, cfg.Security.RefreshTokenDuration)
		authService := auth.NewService(authRepo, designations, tokens, bus, lg, cfg.Security.BCryptCost)

		_, err = authService.Register(ctx, auth.RegisterDTO{
			Username:  seedAdminUsername,
			Password:  seedAdminPassword,
			FirstName: "Admin",
		})
		if err != nil && !isUsernameTaken(err) {
			return fmt.Errorf("seed admin: %w", err)
		}

		adminID, err := authRepo.GetUserIDByUsername(ctx, seedAdminUsername)
		if err != nil {
			return err
		}
		if err := authService.GrantPermission(ctx, adminID, internal.PermissionAdmin); err != nil {
			return fmt.Errorf("grant admin: %w", err)
		}

		lg.Info("seed complete", "admin", seedAdminUsername, "designations", len(seedDesignations))
		return nil
	},
}

// seedQuestionBank only adds questions to an empty bank.
func seedQuestionBank(ctx context.Context, svc *question.Service) error {
	existing, err := svc.ListActive(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, q := range seedQuestions {
		if _, err := svc.Create(ctx, q); err != nil {
			return fmt.Errorf("seed question %q: %w", q.Text, err)
		}
	}
	return nil
}

func isConflict(err error) bool {
	var appErr *internal.AppError
	return errors.As(err, &appErr) && appErr.Type == internal.ErrorTypeConflict
}

func isUsernameTaken(err error) bool {
	var appErr *internal.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	details, ok := appErr.Details.(internal.ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range details.Errors {
		if fe.Code == string(internal.ErrCodeUsernameTaken) {
			return true
		}
	}
	return false
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "admin", "username of the seeded administrator")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the seeded administrator")
	_ = seedCmd.MarkFlagRequired("admin-password")
}
