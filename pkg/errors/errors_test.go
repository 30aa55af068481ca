package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInsufficient, status: http.StatusConflict, publicMsg: "not enough stock", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "order already in terminal state", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestIsCodeWalksWrappedChain(t *testing.T) {
	inner := New(CodeInsufficient, "Not enough stock")
	outer := fmt.Errorf("add item: %w", inner)
	if !IsCode(outer, CodeInsufficient) {
		t.Fatalf("expected IsCode to find insufficient stock in chain")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatalf("unexpected match for not found")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatalf("nil error must not match")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("place order: %w", Wrap(CodeDependency, stdErrors.New("conn reset"), "insert order"))
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if !dump.Retryable {
		t.Fatalf("dependency errors are retryable")
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestClassifyMapsPostgresAndTimeouts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"typed passes through", New(CodeNotFound, "Product not found"), CodeNotFound},
		{"pgx unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"}), CodeConflict},
		{"pq check", &pq.Error{Code: "23514", Constraint: "products_stock_check"}, CodeValidation},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), CodeDependency},
		{"plain", stdErrors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got.Code() != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got.Code(), tc.want)
			}
			if !stdErrors.Is(got, tc.err) && got != tc.err {
				t.Fatalf("classified error lost its cause")
			}
		})
	}
	if Classify(nil) != nil {
		t.Fatalf("Classify(nil) must be nil")
	}
}

func TestDumpCapturesPostgresFields(t *testing.T) {
	err := fmt.Errorf("save review: %w", &pgconn.PgError{Code: "23505", ConstraintName: "reviews_product_user_key", TableName: "reviews"})
	dump := Dump(err)
	if dump.PG.Code != "23505" || dump.PG.Table != "reviews" {
		t.Fatalf("unexpected pg fields: %+v", dump.PG)
	}
	fields := dump.Fields()
	if fields["pg_constraint"] != "reviews_product_user_key" {
		t.Fatalf("pg constraint missing from log fields: %v", fields)
	}
}
