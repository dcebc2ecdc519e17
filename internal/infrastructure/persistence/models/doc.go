// Package models contains GORM persistence models for the chit ledger tables.
// They are kept apart from the domain entities so the domain layer stays free
// of ORM tags.
//
// Each model maps one table created by the SQL migrations and carries
// ToDomain / FromDomain mappers used by the repositories.
//
// Structure:
//   - base.go: shared columns (BaseModel, AggregateModel, VerificationModel)
//   - chit.go: plans, customers, subscriptions, installments, number sequences
package models
