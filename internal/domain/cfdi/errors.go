package cfdi

import "fmt"

// Structural levels of a comprobante, used in error reporting.
const (
	LevelComprobante = "Comprobante"
	LevelEmisor      = "Emisor"
	LevelReceptor    = "Receptor"
	LevelConcepto    = "Concepto"
	LevelTraslado    = "Traslado"
)

// MalformedXMLError indicates the input could not be read as a CFDI document:
// invalid UTF-8, unparseable XML, or a missing Comprobante root.
type MalformedXMLError struct {
	Reason string
	Err    error
}

func (e *MalformedXMLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed CFDI document: %s: %v", e.Reason, e.Err)
	}
	return "malformed CFDI document: " + e.Reason
}

func (e *MalformedXMLError) Unwrap() error { return e.Err }

// MissingFieldError indicates a mandatory attribute is absent at a structural level.
type MissingFieldError struct {
	Level string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: mandatory field %s is missing", e.Level, e.Field)
}

// FieldTypeError indicates an attribute is present but not convertible to a number.
type FieldTypeError struct {
	Level string
	Field string
	Value string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s: field %s has non-numeric value %q", e.Level, e.Field, e.Value)
}

// DateFormatError indicates the Fecha attribute does not match the CFDI layout.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("Comprobante: field Fecha has invalid format %q, want YYYY-MM-DDTHH:MM:SS", e.Value)
}
