// Package util provides common utility functions and data structures
//
// This package includes a generic set implementation used for node tables,
// token sets, and keyword lists throughout the renewal service
package util
