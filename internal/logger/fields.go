package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is a structured log field.
type Field = zap.Field

var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Any      = zap.Any
	Stringer = zap.Stringer
)

// Duration creates a duration field.
func Duration(key string, d time.Duration) Field { return zap.Duration(key, d) }

// Error creates an "error" field. A nil error produces a skipped field.
func Error(err error) Field { return zap.Error(err) }

// Descriptor is the conventional field for a binding identity.
func Descriptor(implementation string) Field { return zap.String("descriptor", implementation) }

// Contract is the conventional field for a looked up contract.
func Contract(contract string) Field { return zap.String("contract", contract) }
