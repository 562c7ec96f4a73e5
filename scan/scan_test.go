package scan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNextToken(t *testing.T) {
	tests := []struct {
		s    string
		pos  int
		want string
	}{
		{"age+3", 0, "age"},
		{"age+3", 3, "+"},
		{"age+3", 4, "3"},
		{"f(x,y)", 1, "("},
		{"#3", 0, "#"},
		{"abc", 3, ""},
		{"a%b", 1, "%"},
	}
	for _, tc := range tests {
		if got := NextToken(tc.s, tc.pos); got != tc.want {
			t.Fatalf("NextToken(%q,%d) = %q, want %q", tc.s, tc.pos, got, tc.want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("max(a,2)*-b")
	want := []string{"max", "(", "a", ",", "2", ")", "*", "-", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestTopLevelSplit(t *testing.T) {
	got, err := TopLevelSplit("a,f(b,c),d", ',')
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "f(b,c)", "d"}, got); diff != "" {
		t.Fatal(diff)
	}

	got, err = TopLevelSplit("", ',')
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{""}, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestTopLevelSplitUnbalanced(t *testing.T) {
	for _, s := range []string{"f(a,b", "a),b", "((a)", ")("} {
		_, err := TopLevelSplit(s, ',')
		var ue *UnbalancedError
		if !errors.As(err, &ue) {
			t.Fatalf("%q: expected *UnbalancedError, got %v", s, err)
		}
	}
}

func TestMatchingParen(t *testing.T) {
	s := "f(g(x),y)+1"
	if got := MatchingParen(s, 1); got != 8 {
		t.Fatal(got)
	}
	if got := MatchingParen(s, 3); got != 5 {
		t.Fatal(got)
	}
	if got := MatchingParen("f(x", 1); got != -1 {
		t.Fatal(got)
	}
	if got := MatchingParen(s, 0); got != -1 {
		t.Fatal(got)
	}
}

func TestTopLevelIndex(t *testing.T) {
	if i := TopLevelIndex("f(a,b),c", ','); i != 6 {
		t.Fatal(i)
	}
	if i := TopLevelIndex("f(a,b)", ','); i != -1 {
		t.Fatal(i)
	}
}

func TestReplaceTopLevel(t *testing.T) {
	if got := ReplaceTopLevel("eq(a,b),gt(c,d)", ',', ';'); got != "eq(a,b);gt(c,d)" {
		t.Fatal(got)
	}
}

func TestIsNumber(t *testing.T) {
	for s, want := range map[string]bool{
		"3":     true,
		"3.5":   true,
		".5":    true,
		"-2":    true,
		"1e3":   true,
		"":      false,
		"e3":    false,
		"age":   false,
		"3abc":  false,
		"Inf":   false,
		"NaN":   false,
		"+0.25": true,
	} {
		if got := IsNumber(s); got != want {
			t.Fatalf("IsNumber(%q) = %v", s, got)
		}
	}
}

func TestDeleteSpaces(t *testing.T) {
	if got := DeleteSpaces(" a +\tb\n"); got != "a+b" {
		t.Fatal(got)
	}
}

func TestBetween(t *testing.T) {
	s, ok := Between("current_count_of_INF.E_in_School", "_of_", ".")
	if !ok || s != "INF" {
		t.Fatal(s, ok)
	}
	if _, ok := Between("abc", "_of_", "."); ok {
		t.Fatal("expected miss")
	}
	s, ok = Between("admin_of_School", "_of_", "")
	if !ok || s != "School" {
		t.Fatal(s, ok)
	}
}
