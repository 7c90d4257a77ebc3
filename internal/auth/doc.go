// Package auth is the authorization and navigation-gating model of the
// Mala back office.
//
// This package implements:
//   - The closed role set and named permissions (RBAC)
//   - The permission evaluator (any/all requirements)
//   - The two-layer route guard (role check, then permission check)
//   - The root-path landing router with its one-shot redirect
//   - The declarative back-office route table and navigation links
//
// Everything here is a pure function of a Session snapshot. Transport,
// rendering and session storage live in other packages.
package auth
