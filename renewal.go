// Package renewal identifies the renewal workflow service build
package renewal

const (
	Name    = "renewal"
	Version = "0.1.0"
)
