package token

import (
	"time"

	"github.com/go-authgate/authcore/internal/core"
)

// Token type constants
const (
	TokenTypeBearer = "bearer"
)

// DefaultTTL is the lifetime used when a caller passes a non-positive ttl.
const DefaultTTL = 15 * time.Minute

// Result is an alias for core.TokenResult.
type Result = core.TokenResult

// ValidationResult is an alias for core.TokenValidationResult.
type ValidationResult = core.TokenValidationResult
