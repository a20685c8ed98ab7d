// Package repository_mocks holds gomock doubles for the repository interfaces.
package repository_mocks

//go:generate mockgen -source=../interfaces.go -destination=repository_mocks.go -package=repository_mocks
