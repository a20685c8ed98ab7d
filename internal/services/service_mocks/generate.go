// Package service_mocks holds gomock doubles for the service interfaces.
package service_mocks

//go:generate mockgen -source=../interfaces.go -destination=service_mocks.go -package=service_mocks
