package model

import "sort"

// Choice is one entry of an enumerated field: the stored value and a label
// suitable for display.
type Choice struct {
	Value string
	Label string
}

// LanguageChoices lists every lexer a snippet may be tagged with, sorted by value.
var LanguageChoices = sortedChoices([]Choice{
	{"abap", "ABAP"},
	{"ada", "Ada"},
	{"awk", "Awk"},
	{"bash", "Bash"},
	{"bat", "Batchfile"},
	{"c", "C"},
	{"clojure", "Clojure"},
	{"cmake", "CMake"},
	{"cobol", "COBOL"},
	{"coffeescript", "CoffeeScript"},
	{"common-lisp", "Common Lisp"},
	{"console", "Bash Session"},
	{"cpp", "C++"},
	{"csharp", "C#"},
	{"css", "CSS"},
	{"d", "D"},
	{"dart", "Dart"},
	{"diff", "Diff"},
	{"django", "Django/Jinja"},
	{"docker", "Docker"},
	{"elixir", "Elixir"},
	{"elm", "Elm"},
	{"erlang", "Erlang"},
	{"fortran", "Fortran"},
	{"fsharp", "F#"},
	{"go", "Go"},
	{"graphql", "GraphQL"},
	{"groovy", "Groovy"},
	{"haskell", "Haskell"},
	{"hcl", "HCL"},
	{"html", "HTML"},
	{"ini", "INI"},
	{"java", "Java"},
	{"javascript", "JavaScript"},
	{"json", "JSON"},
	{"julia", "Julia"},
	{"kotlin", "Kotlin"},
	{"lua", "Lua"},
	{"make", "Makefile"},
	{"markdown", "Markdown"},
	{"matlab", "Matlab"},
	{"nginx", "Nginx configuration file"},
	{"nim", "Nimrod"},
	{"nix", "Nix"},
	{"objective-c", "Objective-C"},
	{"ocaml", "OCaml"},
	{"perl", "Perl"},
	{"php", "PHP"},
	{"postgresql", "PostgreSQL SQL dialect"},
	{"powershell", "PowerShell"},
	{"prolog", "Prolog"},
	{"protobuf", "Protocol Buffer"},
	{"pycon", "Python console session"},
	{"python", "Python"},
	{"python2", "Python 2.x"},
	{"r", "R"},
	{"racket", "Racket"},
	{"rst", "reStructuredText"},
	{"ruby", "Ruby"},
	{"rust", "Rust"},
	{"scala", "Scala"},
	{"scheme", "Scheme"},
	{"sql", "SQL"},
	{"swift", "Swift"},
	{"tcl", "Tcl"},
	{"tex", "TeX"},
	{"text", "Text only"},
	{"toml", "TOML"},
	{"typescript", "TypeScript"},
	{"vim", "VimL"},
	{"xml", "XML"},
	{"yaml", "YAML"},
	{"zig", "Zig"},
})

// StyleChoices lists every highlight style, sorted by value.
var StyleChoices = sortedChoices([]Choice{
	{"abap", "abap"},
	{"algol", "algol"},
	{"algol_nu", "algol_nu"},
	{"arduino", "arduino"},
	{"autumn", "autumn"},
	{"borland", "borland"},
	{"bw", "bw"},
	{"colorful", "colorful"},
	{"default", "default"},
	{"dracula", "dracula"},
	{"emacs", "emacs"},
	{"friendly", "friendly"},
	{"friendly_grayscale", "friendly_grayscale"},
	{"fruity", "fruity"},
	{"github-dark", "github-dark"},
	{"gruvbox-dark", "gruvbox-dark"},
	{"gruvbox-light", "gruvbox-light"},
	{"igor", "igor"},
	{"inkpot", "inkpot"},
	{"lightbulb", "lightbulb"},
	{"lilypond", "lilypond"},
	{"lovelace", "lovelace"},
	{"manni", "manni"},
	{"material", "material"},
	{"monokai", "monokai"},
	{"murphy", "murphy"},
	{"native", "native"},
	{"nord", "nord"},
	{"nord-darker", "nord-darker"},
	{"one-dark", "one-dark"},
	{"paraiso-dark", "paraiso-dark"},
	{"paraiso-light", "paraiso-light"},
	{"pastie", "pastie"},
	{"perldoc", "perldoc"},
	{"rainbow_dash", "rainbow_dash"},
	{"rrt", "rrt"},
	{"sas", "sas"},
	{"solarized-dark", "solarized-dark"},
	{"solarized-light", "solarized-light"},
	{"staroffice", "staroffice"},
	{"stata-dark", "stata-dark"},
	{"stata-light", "stata-light"},
	{"tango", "tango"},
	{"trac", "trac"},
	{"vim", "vim"},
	{"vs", "vs"},
	{"xcode", "xcode"},
	{"zenburn", "zenburn"},
})

var (
	languageSet = choiceSet(LanguageChoices)
	styleSet    = choiceSet(StyleChoices)
)

// IsLanguage reports whether v is one of LanguageChoices.
func IsLanguage(v string) bool {
	_, ok := languageSet[v]
	return ok
}

// IsStyle reports whether v is one of StyleChoices.
func IsStyle(v string) bool {
	_, ok := styleSet[v]
	return ok
}

func sortedChoices(c []Choice) []Choice {
	sort.Slice(c, func(i, j int) bool { return c[i].Value < c[j].Value })
	return c
}

func choiceSet(c []Choice) map[string]struct{} {
	set := make(map[string]struct{}, len(c))
	for _, ch := range c {
		set[ch.Value] = struct{}{}
	}
	return set
}
