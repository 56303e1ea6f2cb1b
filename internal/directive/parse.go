package directive

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"github.com/vnykmshr/memoproxy/internal/model"
)

// Prefix starts every directive comment
const Prefix = "//memoize:"

const (
	verbCache   = "cache"
	verbNoCache = "nocache"
	verbDefault = "default"
	verbService = "service"
)

// site is the declaration a comment group is attached to
type site int

const (
	siteType site = iota
	siteMethod
	siteFunc
)

// parsed holds the directives of one comment group
type parsed struct {
	cache    *model.Directive
	noCache  bool
	service  *string
	defaults []Default
}

// Default is a //memoize:default directive. The generated proxy substitutes
// Expr whenever the argument equals its zero value, so an explicit zero cannot
// be passed through. This holds for forwarded methods as well as memoized ones.
type Default struct {
	Param string
	Expr  string
	Pos   token.Pos
}

func parseGroup(fset *token.FileSet, doc *ast.CommentGroup, at site) (parsed, error) {
	var out parsed
	if doc == nil {
		return out, nil
	}

	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Prefix) {
			continue
		}
		fail := func(reason string) error {
			return &SyntaxError{Pos: fset.Position(c.Pos()), Text: c.Text, Reason: reason}
		}

		body := strings.TrimSpace(strings.TrimPrefix(c.Text, Prefix))
		verb, rest, _ := strings.Cut(body, " ")
		rest = strings.TrimSpace(rest)

		switch verb {
		case verbCache:
			if at == siteFunc {
				return out, fail("must annotate a type or method")
			}
			if out.cache != nil {
				return out, fail("duplicate cache directive")
			}
			d, reason := parseCache(rest)
			if reason != "" {
				return out, fail(reason)
			}
			if at == siteType {
				d.Origin = model.OriginClass
			} else {
				d.Origin = model.OriginMethod
			}
			out.cache = &d
		case verbNoCache:
			if at != siteMethod {
				return out, fail("must annotate a method")
			}
			if rest != "" {
				return out, fail("takes no arguments")
			}
			out.noCache = true
		case verbDefault:
			if at != siteMethod {
				return out, fail("must annotate a method")
			}
			param, expr, _ := strings.Cut(rest, " ")
			expr = strings.TrimSpace(expr)
			if param == "" || expr == "" {
				return out, fail("expected a parameter name and an expression")
			}
			for _, d := range out.defaults {
				if d.Param == param {
					return out, fail("duplicate default for " + param)
				}
			}
			out.defaults = append(out.defaults, Default{Param: param, Expr: expr, Pos: c.Pos()})
		case verbService:
			if at != siteType {
				return out, fail("must annotate a type")
			}
			if strings.ContainsAny(rest, " \t") {
				return out, fail("service id must be a single word")
			}
			id := rest
			out.service = &id
		default:
			return out, fail("unknown verb " + strconv.Quote(verb))
		}
	}

	return out, nil
}

// parseCache reads the key=value options of a cache directive. The returned
// reason is empty on success.
func parseCache(args string) (model.Directive, string) {
	d := model.Directive{Enabled: true}
	seen := map[string]bool{}

	for _, opt := range strings.Fields(args) {
		name, value, ok := strings.Cut(opt, "=")
		if !ok {
			return d, "expected key=value, got " + strconv.Quote(opt)
		}
		if seen[name] {
			return d, "duplicate option " + name
		}
		seen[name] = true

		switch name {
		case "ttl":
			n, err := strconv.Atoi(value)
			if err != nil {
				return d, "ttl must be an integer number of seconds"
			}
			if n <= 0 {
				return d, "ttl must be positive"
			}
			d.TTLSeconds = &n
		case "enabled":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return d, "enabled must be true or false"
			}
			d.Enabled = b
		default:
			return d, "unknown option " + strconv.Quote(name)
		}
	}

	return d, ""
}
