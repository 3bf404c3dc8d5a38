// Package jsparse checks that JavaScript source is syntactically well formed.
package jsparse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

const snippetLimit = 60

// ErrParserUnavailable is returned when the parser produced no tree.
var ErrParserUnavailable = errors.New("javascript parser unavailable")

// SyntaxError locates the first malformed construct in the source.
// Line and Column are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Missing bool
	Snippet string
}

func (e *SyntaxError) Error() string {
	kind := "unexpected input"
	if e.Missing {
		kind = "missing token"
	}
	if e.Snippet == "" {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, kind)
	}
	return fmt.Sprintf("syntax error at %d:%d: %s near %q", e.Line, e.Column, kind, e.Snippet)
}

// Validator parses JavaScript with tree-sitter. The resulting tree is only
// inspected for error nodes.
type Validator struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewValidator builds a validator for the JavaScript grammar.
func NewValidator() *Validator {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	return &Validator{parser: parser}
}

// Validate returns nil when source parses cleanly, a *SyntaxError when it
// does not, or the parser's own error.
func (v *Validator) Validate(ctx context.Context, source string) error {
	content := []byte(source)

	v.mu.Lock()
	tree, err := v.parser.ParseCtx(ctx, nil, content)
	v.mu.Unlock()
	if err != nil {
		return fmt.Errorf("parse javascript: %w", err)
	}
	if tree == nil {
		return ErrParserUnavailable
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	node := firstErrorNode(root)
	if node == nil {
		node = root
	}

	point := node.StartPoint()
	return &SyntaxError{
		Line:    int(point.Row) + 1,
		Column:  int(point.Column) + 1,
		Missing: node.IsMissing(),
		Snippet: snippet(content, node),
	}
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(content []byte, node *sitter.Node) string {
	start, end := int(node.StartByte()), int(node.EndByte())
	if start >= len(content) || start >= end {
		return ""
	}
	if end > len(content) {
		end = len(content)
	}
	text := strings.TrimSpace(string(content[start:end]))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > snippetLimit {
		text = text[:snippetLimit]
	}
	return text
}
