package handlers

import (
	"net/http"
	"testing"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankAccountHandler_CreateBankAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service_mocks.NewMockBankAccountServiceInterface(ctrl)
	h := NewBankAccountHandler(svc, discardLogger())
	e := newTestEcho()
	userID := uuid.New()
	linked := uuid.New()

	svc.EXPECT().
		CreateAccount(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, req *dto.CreateBankAccountRequest) (*models.BankAccount, error) {
			assert.Equal(t, "First Local", req.BankName)
			return &models.BankAccount{
				ID:            uuid.New(),
				UserID:        userID,
				LinkedItemID:  &linked,
				BankName:      req.BankName,
				AccountNumber: req.AccountNumber,
				AccountType:   models.BankAccountTypeDepository,
				Balance:       decimal.RequireFromString("1200.5"),
			}, nil
		})

	c, rec := newJSONContext(e, http.MethodPost, "/bank-accounts", map[string]interface{}{
		"bank_name":      "First Local",
		"account_number": "000123456789",
		"balance":        "1200.5",
	})
	withUser(c, userID, false)

	require.NoError(t, h.CreateBankAccount(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.BankAccountResponse
	decodeBody(t, rec, &response)
	assert.Equal(t, "********6789", response.AccountNumber)
	assert.Equal(t, "1200.50", response.Balance)
	assert.True(t, response.Linked)
	assert.NotContains(t, rec.Body.String(), "000123456789")
}

func TestBankAccountHandler_CreateBankAccountRejections(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
		wantErr    bool
	}{
		{
			name:       "account number with symbols",
			body:       map[string]interface{}{"bank_name": "First Local", "account_number": "12-34-56"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BANK_005",
		},
		{
			name:       "account number too short",
			body:       map[string]interface{}{"bank_name": "First Local", "account_number": "123"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BANK_005",
		},
		{
			name:    "unknown account type",
			body:    map[string]interface{}{"bank_name": "First Local", "account_number": "12345678", "account_type": "crypto"},
			wantErr: true,
		},
		{
			name:    "missing bank name",
			body:    map[string]interface{}{"account_number": "12345678"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h := NewBankAccountHandler(service_mocks.NewMockBankAccountServiceInterface(ctrl), discardLogger())
			c, rec := newJSONContext(newTestEcho(), http.MethodPost, "/bank-accounts", tt.body)
			withUser(c, uuid.New(), false)

			err := h.CreateBankAccount(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestBankAccountHandler_ServiceRejectsType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service_mocks.NewMockBankAccountServiceInterface(ctrl)
	svc.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrInvalidBankAccountType)

	h := NewBankAccountHandler(svc, discardLogger())
	c, rec := newJSONContext(newTestEcho(), http.MethodPost, "/bank-accounts", map[string]interface{}{
		"bank_name":      "First Local",
		"account_number": "12345678",
	})
	withUser(c, uuid.New(), false)

	require.NoError(t, h.CreateBankAccount(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BANK_002", errorCode(t, rec))
}

func TestBankAccountHandler_ListBankAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	svc := service_mocks.NewMockBankAccountServiceInterface(ctrl)
	svc.EXPECT().ListAccounts(gomock.Any(), userID).Return([]models.BankAccount{
		{ID: uuid.New(), BankName: "A", AccountNumber: "1111222233334444", Balance: decimal.NewFromInt(10)},
		{ID: uuid.New(), BankName: "B", AccountNumber: "9876", Balance: decimal.Zero},
	}, nil)

	h := NewBankAccountHandler(svc, discardLogger())
	c, rec := newJSONContext(newTestEcho(), http.MethodGet, "/bank-accounts/"+userID.String(), nil)
	c.SetParamNames("userId")
	c.SetParamValues(userID.String())

	require.NoError(t, h.ListBankAccounts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.BankAccountResponse
	decodeBody(t, rec, &response)
	require.Len(t, response, 2)
	assert.Equal(t, "************4444", response[0].AccountNumber)
	assert.Equal(t, "9876", response[1].AccountNumber)
	assert.False(t, response[1].Linked)
}

func TestIsAccountNumber(t *testing.T) {
	assert.True(t, isAccountNumber("GB82 WEST 1234 5698 7654 32"))
	assert.True(t, isAccountNumber("1234"))
	assert.False(t, isAccountNumber("123"))
	assert.False(t, isAccountNumber("12345678901234567890123456789012345"))
	assert.False(t, isAccountNumber("1234é567"))
	assert.False(t, isAccountNumber("1234-5678"))
}
