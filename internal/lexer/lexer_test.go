package lexer

import (
	"testing"

	"github.com/bite-lang/bite/internal/token"
)

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	input := `+ - * / // % ! ~ & | ^ << >> && || == != < <= > >=
	+= -= *= /= //= %= <<= >>= &= ^= |=
	= ( ) { } [ ] , . .. ... ; : :: ? ?. ?? ??= @`

	tests := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASHSLASH, token.PERCENT,
		token.BANG, token.TILDE, token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR,
		token.AMPAMP, token.PIPEPIPE, token.EQEQ, token.BANGEQ, token.LT, token.LTEQ, token.GT, token.GTEQ,
		token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ, token.SLASHSLASHEQ, token.PERCENTEQ,
		token.SHLEQ, token.SHREQ, token.AMPEQ, token.CARETEQ, token.PIPEEQ,
		token.EQ, token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET,
		token.COMMA, token.DOT, token.DOTDOT, token.DOTDOTDOT, token.SEMICOLON, token.COLON, token.COLONCOLON,
		token.QUESTION, token.QUESTIONDOT, token.QUESTIONQUESTION, token.QUESTIONQUESTIONEQ, token.AT,
	}

	l := New("test.bite", input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Kind != want {
			t.Fatalf("tests[%d]: expected kind %s, got %s (lexeme %q)", i, want, tok.Kind, tok.Lexeme)
		}
	}
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF at end of stream, got %s", tok.Kind)
	}
}

func TestNextTokenKeywords(t *testing.T) {
	input := "class fun return if is in break continue match true false else this loop super nil " +
		"let while native for private abstract override get set object trait exclude as using notakeyword"

	expected := []token.Kind{
		token.CLASS, token.FUN, token.RETURN, token.IF, token.IS, token.IN, token.BREAK, token.CONTINUE,
		token.MATCH, token.TRUE, token.FALSE, token.ELSE, token.THIS, token.LOOP, token.SUPER, token.NIL,
		token.LET, token.WHILE, token.NATIVE, token.FOR, token.PRIVATE, token.ABSTRACT, token.OVERRIDE,
		token.GET, token.SET, token.OBJECT, token.TRAIT, token.EXCLUDE, token.AS, token.USING, token.IDENT,
	}

	l := New("test.bite", input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Kind != want {
			t.Fatalf("tests[%d]: expected %s, got %s (lexeme %q)", i, want, tok.Kind, tok.Lexeme)
		}
	}
}

func TestNextTokenSpansMatchSourceOffsets(t *testing.T) {
	l := New("test.bite", "let x = 1;")
	tok := l.NextToken() // "let"
	if tok.Span.Start.Offset != 0 || tok.Span.End.Offset != 3 {
		t.Fatalf("unexpected span for 'let': %+v", tok.Span)
	}
	tok = l.NextToken() // "x"
	if tok.Span.Start.Offset != 4 || tok.Span.End.Offset != 5 {
		t.Fatalf("unexpected span for 'x': %+v", tok.Span)
	}
}

func TestIdentifiersAndLabels(t *testing.T) {
	l := New("test.bite", "foo_bar _leading @myLabel")
	tok := l.NextToken()
	if tok.Kind != token.IDENT || tok.Lexeme != "foo_bar" {
		t.Fatalf("expected IDENT foo_bar, got %s %q", tok.Kind, tok.Lexeme)
	}
	tok = l.NextToken()
	if tok.Kind != token.IDENT || tok.Lexeme != "_leading" {
		t.Fatalf("expected IDENT _leading, got %s %q", tok.Kind, tok.Lexeme)
	}
	tok = l.NextToken()
	if tok.Kind != token.LABEL || tok.Lexeme != "myLabel" {
		t.Fatalf("expected LABEL myLabel, got %s %q", tok.Kind, tok.Lexeme)
	}
}

func TestStringLiteral(t *testing.T) {
	l := New("test.bite", `"hello world"`)
	tok := l.NextToken()
	if tok.Kind != token.STRING || tok.StrVal != "hello world" {
		t.Fatalf("expected STRING %q, got %s %q", "hello world", tok.Kind, tok.StrVal)
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}
}

func TestUnterminatedStringIsAnError(t *testing.T) {
	l := New("test.bite", `"unterminated`)
	l.NextToken()
	if len(l.Errors()) != 1 {
		t.Fatalf("expected exactly one lex error, got %d", len(l.Errors()))
	}
}

func TestIllegalCharacterIsAnError(t *testing.T) {
	l := New("test.bite", "let x = `;")
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected exactly one lex error for illegal character, got %d: %v", len(l.Errors()), l.Errors())
	}
}

func TestCommentsAndWhitespaceAreSkipped(t *testing.T) {
	l := New("test.bite", "let x = 1; # this is a comment\nlet y = 2;")
	var kinds []token.Kind
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{
		token.LET, token.IDENT, token.EQ, token.INT, token.SEMICOLON,
		token.LET, token.IDENT, token.EQ, token.INT, token.SEMICOLON,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(kinds), kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("token %d: expected %s, got %s", i, k, kinds[i])
		}
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		src      string
		wantKind token.Kind
		wantInt  int64
		wantFlt  float64
	}{
		{"42", token.INT, 42, 0},
		{"0x2A", token.INT, 42, 0},
		{"0b101010", token.INT, 42, 0},
		{"052", token.INT, 42, 0}, // octal
		{"1_000", token.INT, 1000, 0},
		{"3.14", token.FLOAT, 0, 3.14},
		{"1e3", token.FLOAT, 0, 1000},
		{"2.5e2", token.FLOAT, 0, 250},
	}
	for _, tt := range tests {
		l := New("test.bite", tt.src)
		tok := l.NextToken()
		if tok.Kind != tt.wantKind {
			t.Fatalf("%q: expected kind %s, got %s", tt.src, tt.wantKind, tok.Kind)
		}
		if tt.wantKind == token.INT && tok.IntVal != tt.wantInt {
			t.Fatalf("%q: expected int %d, got %d", tt.src, tt.wantInt, tok.IntVal)
		}
		if tt.wantKind == token.FLOAT && tok.FltVal != tt.wantFlt {
			t.Fatalf("%q: expected float %v, got %v", tt.src, tt.wantFlt, tok.FltVal)
		}
	}
}

func TestMaximalMunchOnMultiCharOperators(t *testing.T) {
	// ">>=" must not lex as ">", ">", "=" nor ">>", "=".
	l := New("test.bite", ">>=")
	tok := l.NextToken()
	if tok.Kind != token.SHREQ {
		t.Fatalf("expected SHREQ, got %s", tok.Kind)
	}
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF after maximal munch, got %s", tok.Kind)
	}
}

func TestInternerCanonicalizesIdentifiers(t *testing.T) {
	l := New("test.bite", "foo foo")
	a := l.NextToken()
	b := l.NextToken()
	if a.Lexeme != b.Lexeme {
		t.Fatalf("expected equal canonical lexemes, got %q and %q", a.Lexeme, b.Lexeme)
	}
	if l.Interner().Len() != 1 {
		t.Fatalf("expected exactly one interned string for two occurrences of 'foo', got %d", l.Interner().Len())
	}
}
