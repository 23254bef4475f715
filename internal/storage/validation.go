package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateInsights validates a batch before upsert.
func validateInsights(insights []model.Insight) error {
	if insights == nil {
		return fmt.Errorf("%w: insights", ErrNilParameter)
	}
	if len(insights) == 0 {
		return fmt.Errorf("%w: insights", ErrEmptySlice)
	}
	for i, insight := range insights {
		if insight.ID == "" {
			return fmt.Errorf("insight at index %d: id is required", i)
		}
		if insight.CompanyID == "" {
			return fmt.Errorf("insight at index %d: company id is required", i)
		}
	}
	return nil
}
