package social

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mikempala/social-rest"
)

// ProviderError is a failed call to an identity provider endpoint
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Provider + " " + e.Operation))
	if b.Len() == 0 {
		b.WriteString("provider")
	}
	b.WriteString(" failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}

	switch {
	case e.Description != "":
		b.WriteString(": " + e.Description)
	case e.Code != "":
		b.WriteString(": " + e.Code)
	case e.Err != nil:
		b.WriteString(": " + e.Err.Error())
	}

	return b.String()
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata returns the non empty fields for logging
func (e *ProviderError) Metadata() map[string]any {
	meta := map[string]any{}
	if e == nil {
		return meta
	}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	return meta
}

func wrapProviderError(base *goerrors.Error, provider, operation string, err error) error {
	if base == nil {
		return err
	}

	meta := map[string]any{"provider": provider, "operation": operation}

	var perr *ProviderError
	if errors.As(err, &perr) {
		for k, v := range perr.Metadata() {
			meta[k] = v
		}
	}

	return auth.WrapSentinel(base, err, meta)
}
