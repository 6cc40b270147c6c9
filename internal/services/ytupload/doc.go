// Package ytupload wraps the external YouTube upload tool.
package ytupload
