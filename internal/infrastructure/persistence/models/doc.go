// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain stays free of ORM tags.
//
// Each model carries ToDomain and FromDomain mappers; repositories read and
// write models only.
//
//   - base.go: shared columns (id, timestamps, version, tenant_id)
//   - identity.go: tenants and users
//   - partner.go: customers and suppliers
//   - catalog.go: products and services
//   - invoicing.go: quotes, invoices, their items, payments
package models
