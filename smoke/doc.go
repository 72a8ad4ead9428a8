// Package smoke is a small client for checking a deployed query service.
package smoke
