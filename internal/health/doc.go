// Package health turns probe observations into verdicts.
//
// Classify is a pure function of a record and one probe result. Verdicts form
// a closed, totally ordered set; Assess folds per-project verdicts into the
// worst one for a record.
package health
