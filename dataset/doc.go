// Package dataset reads the talk transcript CSV and produces the reduced
// working subset used for ingestion.
package dataset
