package repositories

import (
	"context"
	"errors"
	"fmt"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
)

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepositoryInterface {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return errors.New("expense cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &expense, nil
}

// ListByUser returns the user's expenses, most recent first
func (r *expenseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return errors.New("expense cannot be nil")
	}

	result := r.db.WithContext(ctx).Model(expense).
		Select("amount", "category", "description", "date", "updated_at").
		Updates(expense)
	if result.Error != nil {
		return fmt.Errorf("failed to update expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Expense{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// MonthlyTotals sums expense amounts per calendar month number
func (r *expenseRepository) MonthlyTotals(ctx context.Context, userID *uuid.UUID) ([]models.MonthlyTotal, error) {
	db := r.db.WithContext(ctx).Model(&models.Expense{}).Select("date", "amount")
	if userID != nil {
		db = db.Where("user_id = ?", *userID)
	}

	var rows []datedAmount
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load expense totals: %w", err)
	}
	return foldMonthlyTotals(rows), nil
}
