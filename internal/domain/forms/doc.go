// Package forms maps submitted dialog input onto persistable records.
//
// Validate* run the form schemas (go-playground/validator). Map* are pure,
// never fail and assume validation already happened; invariant-violating
// input is normalized silently rather than rejected.
package forms
