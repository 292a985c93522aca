package render

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"text/template/parse"

	"github.com/louisbranch/adgeletti/internal/ads/placement"
	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

// Template function names.
const (
	AdFunc = "ad"
	GoFunc = "adgeletti_go"
)

// NewTemplate returns an html/template with the ad functions declared so it
// can be parsed. The declared functions refuse to run; pages are executed
// through Execute, which binds a real session.
func NewTemplate(name string) *template.Template {
	return template.New(name).Funcs(template.FuncMap{
		AdFunc: func(string, ...string) (template.HTML, error) { return "", ErrNoSession },
		GoFunc: func() (template.HTML, error) { return "", ErrNoSession },
	})
}

// Funcs binds the ad functions to one render's session.
func Funcs(ctx context.Context, s *placement.Session) template.FuncMap {
	return template.FuncMap{
		AdFunc: func(slot string, breakpoints ...string) (template.HTML, error) {
			tag, err := placement.NewAdTag(slot, breakpoints...)
			if err != nil {
				return "", err
			}
			if s == nil {
				return "", ErrNoSession
			}
			return template.HTML(s.Declare(tag).HTML()), nil
		},
		GoFunc: func() (template.HTML, error) {
			if s == nil {
				return "", ErrNoSession
			}
			res, err := s.Resolve(ctx)
			if err != nil {
				return "", err
			}
			out, err := res.HTML()
			if err != nil {
				return "", err
			}
			return template.HTML(out), nil
		},
	}
}

// Execute renders the named template of base with the ad functions bound to
// s. base is cloned, so it must not have been executed itself.
func Execute(ctx context.Context, w io.Writer, base *template.Template, name string, s *placement.Session, data any) error {
	page, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}
	page.Funcs(Funcs(ctx, s))
	return page.ExecuteTemplate(w, name, data)
}

// CheckTemplate rejects ad calls with fewer than a slot and one breakpoint.
// Run it right after parsing so a malformed page fails at startup instead of
// on its first request.
func CheckTemplate(t *template.Template) error {
	for _, tmpl := range t.Templates() {
		if tmpl.Tree == nil || tmpl.Tree.Root == nil {
			continue
		}
		if err := checkNode(tmpl.Tree, tmpl.Tree.Root); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(tree *parse.Tree, node parse.Node) error {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return nil
		}
		for _, child := range n.Nodes {
			if err := checkNode(tree, child); err != nil {
				return err
			}
		}
	case *parse.ActionNode:
		return checkPipe(tree, n.Pipe)
	case *parse.TemplateNode:
		return checkPipe(tree, n.Pipe)
	case *parse.IfNode:
		return checkBranch(tree, &n.BranchNode)
	case *parse.RangeNode:
		return checkBranch(tree, &n.BranchNode)
	case *parse.WithNode:
		return checkBranch(tree, &n.BranchNode)
	}
	return nil
}

func checkBranch(tree *parse.Tree, branch *parse.BranchNode) error {
	if err := checkPipe(tree, branch.Pipe); err != nil {
		return err
	}
	if err := checkNode(tree, branch.List); err != nil {
		return err
	}
	return checkNode(tree, branch.ElseList)
}

func checkPipe(tree *parse.Tree, pipe *parse.PipeNode) error {
	if pipe == nil {
		return nil
	}
	for i, cmd := range pipe.Cmds {
		if len(cmd.Args) == 0 {
			continue
		}
		argc := len(cmd.Args)
		if i > 0 {
			// The previous command's result is passed as the final argument.
			argc++
		}
		if ident, ok := cmd.Args[0].(*parse.IdentifierNode); ok && ident.Ident == AdFunc && argc < 3 {
			location, _ := tree.ErrorContext(cmd)
			return apperrors.WithMetadata(
				apperrors.CodePlaceholderBreakpointsMissing,
				fmt.Sprintf("%s: usage: ad SLOT BREAKPOINT [BREAKPOINT ...]", location),
				map[string]string{"template": tree.Name},
			)
		}
		for _, arg := range cmd.Args {
			if nested, ok := arg.(*parse.PipeNode); ok {
				if err := checkPipe(tree, nested); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
