package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories"
	"spendwise/internal/services"
	"spendwise/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestTransactionHandler(t *testing.T) {
	suite.Run(t, new(TransactionHandlerSuite))
}

type TransactionHandlerSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	transactionService *service_mocks.MockTransactionServiceInterface
	handler            *TransactionHandler
	e                  *echo.Echo
	userID             uuid.UUID
}

func (s *TransactionHandlerSuite) SetupSubTest() {
	s.ctrl = gomock.NewController(s.T())
	s.transactionService = service_mocks.NewMockTransactionServiceInterface(s.ctrl)
	s.handler = NewTransactionHandler(s.transactionService, discardLogger())
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *TransactionHandlerSuite) TearDownSubTest() {
	s.ctrl.Finish()
}

func (s *TransactionHandlerSuite) validBody() map[string]interface{} {
	return map[string]interface{}{
		"date":        "2025-03-14T12:00:00Z",
		"amount":      "42.50",
		"description": "Weekly groceries",
		"merchant":    "Corner Market",
		"category":    "essential",
	}
}

func (s *TransactionHandlerSuite) TestCreateTransaction() {
	s.Run("success derives importance", func() {
		s.transactionService.EXPECT().
			CreateTransaction(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ interface{}, _ uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
				s.True(req.Amount.Equal(decimal.RequireFromString("42.50")))
				s.Equal("essential", req.Category)
				s.Empty(req.Importance)
				return &models.Transaction{
					ID:          uuid.New(),
					UserID:      s.userID,
					Date:        time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
					Amount:      req.Amount,
					Description: req.Description,
					Merchant:    req.Merchant,
					Category:    models.CategoryEssential,
					Importance:  models.ImportanceNecessary,
				}, nil
			})

		c, rec := newJSONContext(s.e, http.MethodPost, "/transactions", s.validBody())
		withUser(c, s.userID, false)

		s.NoError(s.handler.CreateTransaction(c))
		s.Equal(http.StatusCreated, rec.Code)

		var response dto.TransactionResponse
		decodeBody(s.T(), rec, &response)
		s.Equal("42.50", response.Amount)
		s.Equal("essential", response.Category)
		s.Equal("necessary", response.Importance)
		s.Empty(response.BankAccountID)
	})

	s.Run("zero amount is rejected", func() {
		body := s.validBody()
		body["amount"] = "0"

		c, rec := newJSONContext(s.e, http.MethodPost, "/transactions", body)
		withUser(c, s.userID, false)

		s.NoError(s.handler.CreateTransaction(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("TRANSACTION_002", errorCode(s.T(), rec))
	})

	s.Run("unknown category fails validation", func() {
		body := s.validBody()
		body["category"] = "groceries"

		c, _ := newJSONContext(s.e, http.MethodPost, "/transactions", body)
		withUser(c, s.userID, false)

		s.Error(s.handler.CreateTransaction(c))
	})

	s.Run("service errors are mapped", func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("parse: %w", models.ErrUnknownCategory), http.StatusBadRequest, "TRANSACTION_003"},
			{fmt.Errorf("parse: %w", models.ErrUnknownImportance), http.StatusBadRequest, "TRANSACTION_004"},
			{services.ErrInvalidBankAccountID, http.StatusBadRequest, "VALIDATION_003"},
			{repositories.ErrBankAccountNotFound, http.StatusNotFound, "BANK_001"},
			{errors.New("disk full"), http.StatusInternalServerError, "SYSTEM_001"},
		}

		for _, tc := range cases {
			s.transactionService.EXPECT().
				CreateTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, tc.err)

			c, rec := newJSONContext(s.e, http.MethodPost, "/transactions", s.validBody())
			withUser(c, s.userID, false)

			s.NoError(s.handler.CreateTransaction(c))
			s.Equal(tc.status, rec.Code, tc.err.Error())
			s.Equal(tc.code, errorCode(s.T(), rec), tc.err.Error())
		}
	})

	s.Run("missing user context", func() {
		c, rec := newJSONContext(s.e, http.MethodPost, "/transactions", s.validBody())

		s.NoError(s.handler.CreateTransaction(c))
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *TransactionHandlerSuite) TestListTransactions() {
	s.Run("passes parsed filters", func() {
		s.transactionService.EXPECT().
			ListTransactions(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ interface{}, _ uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
				s.Require().NotNil(query.Since)
				s.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *query.Since)
				s.Require().NotNil(query.Category)
				s.Equal(models.CategoryEntertainment, *query.Category)
				s.Equal([]models.Importance{models.ImportanceOptional, models.ImportanceWasteful}, query.Importances)
				s.Equal(25, query.Limit)
				return []models.Transaction{{
					ID:         uuid.New(),
					Amount:     decimal.NewFromInt(15),
					Category:   models.CategoryEntertainment,
					Importance: models.ImportanceWasteful,
				}}, nil
			})

		target := "/transactions/" + s.userID.String() + "?since=2025-01-01&category=entertainment&importance=optional,wasteful&limit=25"
		c, rec := newJSONContext(s.e, http.MethodGet, target, nil)
		c.SetParamNames("userId")
		c.SetParamValues(s.userID.String())

		s.NoError(s.handler.ListTransactions(c))
		s.Equal(http.StatusOK, rec.Code)

		var response dto.ListTransactionsResponse
		decodeBody(s.T(), rec, &response)
		s.Equal(1, response.Total)
		s.Equal("15.00", response.Transactions[0].Amount)
	})

	s.Run("limit is capped", func() {
		s.transactionService.EXPECT().
			ListTransactions(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ interface{}, _ uuid.UUID, query models.TransactionQuery) ([]models.Transaction, error) {
				s.Equal(maxPageLimit, query.Limit)
				return nil, nil
			})

		c, rec := newJSONContext(s.e, http.MethodGet, "/transactions/x?limit=50000", nil)
		c.SetParamNames("userId")
		c.SetParamValues(s.userID.String())

		s.NoError(s.handler.ListTransactions(c))
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"transactions":[],"total":0}`, rec.Body.String())
	})

	s.Run("invalid filters are rejected", func() {
		for _, query := range []string{"since=yesterday", "category=groceries", "importance=urgent", "limit=0"} {
			c, rec := newJSONContext(s.e, http.MethodGet, "/transactions/x?"+query, nil)
			c.SetParamNames("userId")
			c.SetParamValues(s.userID.String())

			s.NoError(s.handler.ListTransactions(c))
			s.Equal(http.StatusBadRequest, rec.Code, query)
			s.Equal("VALIDATION_001", errorCode(s.T(), rec), query)
		}
	})

	s.Run("invalid user id", func() {
		c, rec := newJSONContext(s.e, http.MethodGet, "/transactions/not-a-uuid", nil)
		c.SetParamNames("userId")
		c.SetParamValues("not-a-uuid")

		s.NoError(s.handler.ListTransactions(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("VALIDATION_003", errorCode(s.T(), rec))
	})
}

func (s *TransactionHandlerSuite) TestDeleteTransaction() {
	s.Run("owner deletes", func() {
		transactionID := uuid.New()
		s.transactionService.EXPECT().
			DeleteTransaction(gomock.Any(), s.userID, transactionID, false).
			Return(nil)

		c, rec := newJSONContext(s.e, http.MethodDelete, "/transactions/"+transactionID.String(), nil)
		c.SetParamNames("id")
		c.SetParamValues(transactionID.String())
		withUser(c, s.userID, false)

		s.NoError(s.handler.DeleteTransaction(c))
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("admin flag is forwarded", func() {
		transactionID := uuid.New()
		s.transactionService.EXPECT().
			DeleteTransaction(gomock.Any(), s.userID, transactionID, true).
			Return(nil)

		c, rec := newJSONContext(s.e, http.MethodDelete, "/transactions/"+transactionID.String(), nil)
		c.SetParamNames("id")
		c.SetParamValues(transactionID.String())
		withUser(c, s.userID, true)

		s.NoError(s.handler.DeleteTransaction(c))
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("not found", func() {
		transactionID := uuid.New()
		s.transactionService.EXPECT().
			DeleteTransaction(gomock.Any(), s.userID, transactionID, false).
			Return(repositories.ErrTransactionNotFound)

		c, rec := newJSONContext(s.e, http.MethodDelete, "/transactions/"+transactionID.String(), nil)
		c.SetParamNames("id")
		c.SetParamValues(transactionID.String())
		withUser(c, s.userID, false)

		s.NoError(s.handler.DeleteTransaction(c))
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("TRANSACTION_001", errorCode(s.T(), rec))
	})
}
