// Package session keeps the live sessions of the back office and the
// signed tokens that point browsers at them.
package session
