package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/s0up4200/nfx/catalog"
)

const dateLayout = "2006-01-02"

// ExprFilter is a compiled expression evaluated against catalog titles
type ExprFilter struct {
	expression string
	program    *vm.Program
	now        func() time.Time
	logger     zerolog.Logger
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables caching of compiled filters with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache[*ExprFilter](size)
		}
	}
}

// WithClock sets the time source used by date helpers
func WithClock(now func() time.Time) CompilerOption {
	return func(c *Compiler) {
		c.now = now
	}
}

// WithLogger logs evaluation errors
func WithLogger(logger zerolog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// Compiler compiles filter expressions
type Compiler struct {
	cache  *lruCache[*ExprFilter]
	now    func() time.Time
	logger zerolog.Logger
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles an expression into an executable filter. Unknown names
// and non-boolean results are rejected at compile time.
func (c *Compiler) Compile(expression string) (*ExprFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Err: ErrEmptyExpression}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(newEnvironment(catalog.Title{}, c.now)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Err: err}
	}

	filter := &ExprFilter{
		expression: expression,
		program:    program,
		now:        c.now,
		logger:     c.logger,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Match evaluates the filter against a title
func (f *ExprFilter) Match(title catalog.Title) (bool, error) {
	result, err := expr.Run(f.program, newEnvironment(title, f.now))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			TitleID:    title.ID,
			Title:      title.Title,
			Err:        err,
		}
	}
	// AsBool guarantees the type
	return result.(bool), nil
}

// Evaluate implements catalog.Filter. Titles that fail to evaluate are skipped.
func (f *ExprFilter) Evaluate(title catalog.Title) bool {
	ok, err := f.Match(title)
	if err != nil {
		f.logger.Debug().Err(err).Msg("Skipping title")
		return false
	}
	return ok
}

// Expression returns the original expression
func (f *ExprFilter) Expression() string {
	return f.expression
}

// String returns the original expression
func (f *ExprFilter) String() string {
	return f.expression
}

// newEnvironment exposes a title and the helper functions to expressions
func newEnvironment(title catalog.Title, now func() time.Time) map[string]any {
	env := make(map[string]any, 32)

	// Title properties
	env["ID"] = title.ID
	env["Title"] = title.Title
	env["Type"] = title.Type
	env["Synopsis"] = title.Synopsis
	env["Rating"] = title.Rating
	env["Year"] = title.Year
	env["Released"] = title.Released
	env["Runtime"] = title.Runtime
	env["Minutes"] = runtimeMinutes(title.Runtime)
	env["Expiring"] = title.Expiring
	env["IMDbID"] = title.IMDbID
	env["IsMovie"] = title.IsMovie()

	// String helpers. contains, startsWith and endsWith are expr operators
	// (Title contains "x"), so the case-insensitive forms get their own names.
	env["containsFold"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefixFold"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffixFold"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper

	// Date helpers
	env["now"] = now
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse(dateLayout, dateStr)
		return t
	}
	env["daysSince"] = func(t time.Time) int {
		return int(now().Sub(t).Hours() / 24)
	}
	env["daysUntil"] = func(dateStr string) int {
		t, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return -1
		}
		return int(t.Sub(now()).Hours() / 24)
	}

	return env
}

// runtimeMinutes reads listing runtimes such as "1h44m". Unknown values are 0.
func runtimeMinutes(runtime string) int {
	d, err := time.ParseDuration(strings.ReplaceAll(runtime, " ", ""))
	if err != nil {
		return 0
	}
	return int(d.Minutes())
}
