package repository

import (
	"strings"
	"testing"
)

func TestJSONTextExprByDialectSQLite(t *testing.T) {
	got := jsonTextExprByDialect("sqlite", "metadata", "request_no")
	want := "json_extract(metadata, '$.\"request_no\"')"
	if got != want {
		t.Fatalf("sqlite json expr mismatch, want %s got %s", want, got)
	}
}

func TestJSONTextExprByDialectPostgres(t *testing.T) {
	got := jsonTextExprByDialect("postgres", "metadata", "request_no")
	want := "(metadata::jsonb ->> 'request_no')"
	if got != want {
		t.Fatalf("postgres json expr mismatch, want %s got %s", want, got)
	}
}

func TestBuildLikeCondition(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"request_no", " ", "bank_account_name"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != `request_no LIKE ? ESCAPE '\' OR bank_account_name LIKE ? ESCAPE '\'` {
		t.Fatalf("unexpected condition %s", condition)
	}
	pgCondition, _ := buildLikeConditionByDialect("postgres", []string{"request_no"})
	if !strings.Contains(pgCondition, "ILIKE") {
		t.Fatalf("postgres should use ILIKE, got %s", pgCondition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escaped value %s", got)
	}
}
