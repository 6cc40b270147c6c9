// Package coloredit wraps the external color correction tool.
package coloredit
