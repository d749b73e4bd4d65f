// Package validator provides the struct validation abstraction used by every
// usecase.
//
// Usecases depend on Validator; V10Validator implements it with
// go-playground/validator v10, English messages and JSON field names.
package validator
