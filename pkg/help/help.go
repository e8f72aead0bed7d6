// Package help holds the reference text printed by `wordbind help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
)

// Version is the notation and CLI version the reference describes.
const Version = "v0.1"

// TopicList is the display order of Topics.
var TopicList = []string{"notation", "binding", "objects", "functions", "loops", "config", "diagnostics"}

// QUICKREF is printed by `wordbind help` with no topic.
var QUICKREF = fmt.Sprintf(`wordbind %s quick reference

  wordbind bind FILE [--lib FILE] [--show-bindings]
  wordbind check FILE [--lib FILE]
  wordbind collect FILE [--deep] [--set-only]
  wordbind fmt FILE [--write]
  wordbind repl [--lib FILE]

Topics (wordbind help TOPIC, any unique prefix works):
  %s
`, Version, strings.Join(TopicList, ", "))

// Topics maps topic names to their text.
var Topics = map[string]string{
	"notation": `Notation
  word  set-word:  :get-word  /refinement  'quoted  ''twice
  [block]  (group)  42  -1.5  "string"  _ (blank)  ; comment
Words compare case-insensitively: Foo, foo and FOO are one name.
`,
	"binding": `Binding
Every word carries a binding: unbound, specific (a context and slot), or
relative (a function parameter, resolved through a running call).
Binding a block is deep by default and modifies it in place.
  bind     lib words are imported into user on first use
  user     set-words get a user slot where they appear; earlier uses of
           the same name stay unbound
Show bindings with --show-bindings: x{user:1}, n{f~1}.
`,
	"objects": `Objects
An object is built from a spec without evaluation:
  a: 1  b: c: :a  d: 'e     ; b and c take 1, d takes the word e
A derived object copies its parent's slots and blocks. Everything bound
to the parent, methods included, is rebound to the new object.
`,
	"functions": `Functions
Parameters are plain words and must be distinct (E_DUP_VAR). The body is
copied once and bound relative to the parameter list, so every call
shares it. Each call gets a frame that specifies the relative words.
`,
	"loops": `Loops
  for-each [k v] data body     ; fresh variables, body copied and bound
  for-each ['k v] data body    ; 'k assigns through k's own binding
A quoted variable does not copy the body. Repeating a variable is
E_DUP_LOOP_VAR. The loop context cannot grow.
`,
	"config": `Config
Read from ./.wordbind.yaml, then ~/.wordbind/config.yaml:
  max_depth: 512      ; nesting limit for copy and bind
  log_level: info
  pretty: true        ; default: on when stdout is a terminal
  show_bindings: false
  lib: lib.wb         ; relative to the config file
`,
	"diagnostics": `Diagnostics
Errors print as JSON, or as text with --pretty.
Exit codes: 0 ok, 1 usage, 2 load, 3 binding, 4 internal or config.
Run "wordbind help codes" for the list of codes.
`,
}

var codes = []struct{ code, desc string }{
	{diagnostics.ELex, "invalid token"},
	{diagnostics.EParse, "unbalanced or misplaced delimiter"},
	{diagnostics.EConfig, "invalid configuration"},
	{diagnostics.EUnbound, "word has no binding"},
	{diagnostics.ELoopSpec, "loop variable is not a word or quoted word"},
	{diagnostics.EDupLoop, "loop variable named twice"},
	{diagnostics.EDupKey, "binder already holds the name"},
	{diagnostics.EDupVar, "function parameter named twice"},
	{diagnostics.EOverflow, "nesting or call depth limit reached"},
	{diagnostics.ENotInCtx, "word is not in the context"},
	{diagnostics.EProtected, "write to a protected variable"},
	{diagnostics.EFixed, "key added to a fixed context"},
	{diagnostics.ENoRel, "relative word without a call frame"},
	{diagnostics.ELeak, "binder left entries behind, or runtime closed"},
	{diagnostics.ERange, "slot index out of range"},
	{diagnostics.EType, "wrong kind of value"},
	{diagnostics.EIO, "file could not be read or written"},
	{diagnostics.EInternal, "unexpected failure"},
}

// CodeIndex lists every diagnostic code with a one-line description.
func CodeIndex() string {
	var sb strings.Builder
	for _, c := range codes {
		fmt.Fprintf(&sb, "  %-22s %s\n", c.code, c.desc)
	}
	fmt.Fprintf(&sb, "Total: %d codes\n", len(codes))
	return sb.String()
}

// MatchTopic resolves name to a topic, exactly or by unique prefix. The
// pseudo-topic "codes" returns CodeIndex.
func MatchTopic(name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "codes" {
		return name, CodeIndex(), nil
	}
	if content, ok := Topics[name]; ok {
		return name, content, nil
	}
	if name == "" {
		return "", "", fmt.Errorf("empty topic")
	}
	var matches []string
	for _, t := range TopicList {
		if strings.HasPrefix(t, name) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown topic: %s", name)
	default:
		sort.Strings(matches)
		return "", "", fmt.Errorf("ambiguous topic %s: %s", name, strings.Join(matches, ", "))
	}
}
