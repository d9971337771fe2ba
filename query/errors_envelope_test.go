package query

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

func TestGetLeadMessage_ValidateReturnsRichError(t *testing.T) {
	err := (GetLeadMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ServiceErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ServiceErrorBadInput, rich.TextCode)
	}
}
