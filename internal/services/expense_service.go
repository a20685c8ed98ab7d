package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

type expenseService struct {
	expenseRepo  repositories.ExpenseRepositoryInterface
	auditService AuditServiceInterface
	metrics      MetricsRecorderInterface
	logger       *slog.Logger
	now          func() time.Time
}

func NewExpenseService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) ExpenseServiceInterface {
	return &expenseService{
		expenseRepo:  expenseRepo,
		auditService: auditService,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *expenseService) CreateExpense(ctx context.Context, userID uuid.UUID, req *dto.ExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{UserID: userID}
	if err := s.apply(expense, req); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.recordWrite(ctx, models.AuditActionExpenseCreated, "create", userID, expense.ID)
	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, userID uuid.UUID) ([]models.Expense, error) {
	expenses, err := s.expenseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense returns the expense when userID owns it. Other users' expenses
// are reported as not found.
func (s *expenseService) GetExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.UserID != userID {
		return nil, repositories.ErrExpenseNotFound
	}
	return expense, nil
}

// UpdateExpense replaces every editable field of an owned expense
func (s *expenseService) UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, req *dto.ExpenseRequest) (*models.Expense, error) {
	expense, err := s.GetExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	if err := s.apply(expense, req); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.recordWrite(ctx, models.AuditActionExpenseUpdated, "update", userID, expense.ID)
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	if _, err := s.GetExpense(ctx, userID, expenseID); err != nil {
		return err
	}

	if err := s.expenseRepo.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.recordWrite(ctx, models.AuditActionExpenseDeleted, "delete", userID, expenseID)
	return nil
}

func (s *expenseService) apply(expense *models.Expense, req *dto.ExpenseRequest) error {
	if !req.Amount.IsPositive() {
		return models.ErrInvalidExpenseAmount
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return err
	}

	expense.Amount = req.Amount
	expense.Category = category
	expense.Description = req.Description
	if req.Date != nil {
		expense.Date = *req.Date
	} else if expense.Date.IsZero() {
		expense.Date = s.now()
	}
	return nil
}

func (s *expenseService) recordWrite(ctx context.Context, action, operation string, userID, expenseID uuid.UUID) {
	s.metrics.IncrementCounter("ledger.write", map[string]string{"entity": "expense", "operation": operation})
	if err := s.auditService.LogExpenseChange(action, userID, expenseID); err != nil {
		s.logger.WarnContext(ctx, "failed to audit expense change", "error", err, "action", action, "expense_id", expenseID)
	}
}
