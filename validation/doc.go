// Package validation wraps go-playground/validator for servicekit
// configuration and request payloads.
//
// Structs declare rules with `validate` tags; field names in error messages
// come from json tags, falling back to snake_case:
//
//	type CreateEntryArgs struct {
//	    Title string `json:"title" validate:"required,max=255"`
//	    URL   string `json:"url" validate:"omitempty,url"`
//	}
//	err := validation.Validate(args)
//
// Validate returns a *errors.RuntimeError with code VALIDATION_FAILED and a
// "fields" detail listing each failing field.
//
// A custom `listen_addr` tag validates host:port listen addresses, allowing
// port 0 for ephemeral binding (the builtin hostname_port tag rejects it).
package validation
