package importer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tednaaa/resto/internal/core"
)

// ParseResult is a parsed curl invocation.
type ParseResult struct {
	Spec *core.RequestSpec
	// Name is a short label derived from the URL path.
	Name string
	// Timeout is set from -m/--max-time, zero when absent.
	Timeout  time.Duration
	Warnings []string
}

type token struct {
	value string
	pos   int
}

// Flags with a value we model, long and short spellings.
var shortValueFlags = map[byte]string{
	'X': "--request",
	'H': "--header",
	'd': "--data",
	'u': "--user",
	'A': "--user-agent",
	'e': "--referer",
	'b': "--cookie",
	'm': "--max-time",
	// skipped with their argument
	'o': "--output",
	'x': "--proxy",
	'F': "--form",
	'T': "--upload-file",
	'w': "--write-out",
	'E': "--cert",
	'r': "--range",
	'c': "--cookie-jar",
	'K': "--config",
	'D': "--dump-header",
	'U': "--proxy-user",
	'y': "--speed-time",
	'Y': "--speed-limit",
	'z': "--time-cond",
	'C': "--continue-at",
	'Q': "--quote",
}

var shortBoolFlags = map[byte]string{
	'I': "--head",
	'G': "--get",
	'L': "--location",
	'k': "--insecure",
	's': "--silent",
	'S': "--show-error",
	'v': "--verbose",
	'i': "--include",
	'f': "--fail",
	'N': "--no-buffer",
	'g': "--globoff",
	'O': "--remote-name",
	'#': "--progress-bar",
	'0': "--http1.0",
	'4': "--ipv4",
	'6': "--ipv6",
	'n': "--netrc",
	'j': "--junk-session-cookies",
	'J': "--remote-header-name",
	'l': "--list-only",
	'q': "--disable",
	'R': "--remote-time",
	'Z': "--parallel",
}

var skippedValueFlags = map[string]bool{
	"--output": true, "--proxy": true, "--form": true, "--form-string": true, "--upload-file": true,
	"--write-out": true, "--cert": true, "--cacert": true, "--capath": true, "--key": true,
	"--range": true, "--cookie-jar": true, "--config": true, "--dump-header": true,
	"--proxy-user": true, "--connect-timeout": true, "--retry": true, "--retry-delay": true,
	"--retry-max-time": true, "--resolve": true, "--connect-to": true, "--limit-rate": true,
	"--max-redirs": true, "--interface": true, "--speed-time": true, "--speed-limit": true,
	"--time-cond": true, "--continue-at": true, "--quote": true, "--cert-type": true,
	"--key-type": true, "--pass": true, "--ciphers": true, "--proto": true, "--proto-redir": true,
	"--trace": true, "--trace-ascii": true, "--stderr": true, "--unix-socket": true,
	"--aws-sigv4": true, "--variable": true, "--expect100-timeout": true,
}

var ignoredBoolFlags = map[string]bool{
	"--location": true, "--insecure": true, "--silent": true, "--show-error": true,
	"--verbose": true, "--include": true, "--fail": true, "--fail-with-body": true,
	"--no-buffer": true, "--globoff": true, "--remote-name": true, "--progress-bar": true,
	"--http1.0": true, "--http1.1": true, "--http2": true, "--http2-prior-knowledge": true,
	"--http3": true, "--ipv4": true, "--ipv6": true, "--netrc": true, "--junk-session-cookies": true,
	"--remote-header-name": true, "--list-only": true, "--disable": true, "--remote-time": true,
	"--parallel": true, "--create-dirs": true, "--location-trusted": true, "--raw": true,
	"--tr-encoding": true, "--no-keepalive": true, "--tcp-nodelay": true, "--path-as-is": true,
	"--ssl-reqd": true, "--tlsv1.2": true, "--tlsv1.3": true, "--no-progress-meter": true,
	"--anyauth": true, "--basic": true, "--digest": true, "--ntlm": true, "--negotiate": true,
	// The HTTP transport negotiates and decodes gzip itself.
	"--compressed": true,
}

type curlParser struct {
	tokens []token
	input  string
	pos    int

	method       core.Method
	methodSet    bool
	head         bool
	get          bool
	headers      *core.Headers
	data         []string
	json         bool
	auth         *core.Auth
	positional   string
	explicitURL  string
	explicitSeen bool
	timeout      time.Duration
	warnings     []string
}

// ParseCurl converts a curl command line into a RequestSpec. It never
// touches any state outside the returned result.
func ParseCurl(input string) (*ParseResult, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &CurlParseError{Position: 0, Reason: "empty input"}
	}
	if tokens[0].value == "curl" {
		tokens = tokens[1:]
	}

	p := &curlParser{tokens: tokens, input: input, headers: core.NewHeaders()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.result()
}

func (p *curlParser) parse() error {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch {
		case tok.value == "--":
			for ; p.pos < len(p.tokens); p.pos++ {
				p.addPositional(p.tokens[p.pos])
			}
		case strings.HasPrefix(tok.value, "--"):
			if err := p.parseLong(tok); err != nil {
				return err
			}
		case strings.HasPrefix(tok.value, "-") && len(tok.value) > 1:
			if err := p.parseShort(tok); err != nil {
				return err
			}
		default:
			p.addPositional(tok)
		}
	}
	return nil
}

func (p *curlParser) parseLong(tok token) error {
	name := tok.value
	var value token
	hasValue := false
	if idx := strings.IndexByte(name, '='); idx > 0 {
		value = token{value: name[idx+1:], pos: tok.pos + idx + 1}
		name = name[:idx]
		hasValue = true
	}

	if takesValue(name) {
		if !hasValue {
			next, err := p.next(tok)
			if err != nil {
				return err
			}
			value = next
		}
		return p.apply(name, tok, value)
	}

	if hasValue {
		p.warnf("ignoring value for %s", name)
	}
	return p.apply(name, tok, token{})
}

func (p *curlParser) parseShort(tok token) error {
	flags := tok.value[1:]
	for i := 0; i < len(flags); i++ {
		c := flags[i]
		if long, ok := shortValueFlags[c]; ok {
			var value token
			if i+1 < len(flags) {
				value = token{value: flags[i+1:], pos: tok.pos + i + 2}
			} else {
				next, err := p.next(tok)
				if err != nil {
					return err
				}
				value = next
			}
			return p.apply(long, tok, value)
		}
		if long, ok := shortBoolFlags[c]; ok {
			if err := p.apply(long, tok, token{}); err != nil {
				return err
			}
			continue
		}
		p.warnf("skipping unknown option -%c", c)
	}
	return nil
}

func takesValue(name string) bool {
	switch name {
	case "--request", "--header", "--data", "--data-raw", "--data-ascii", "--data-binary",
		"--data-urlencode", "--json", "--user", "--oauth2-bearer", "--url", "--user-agent",
		"--referer", "--cookie", "--max-time":
		return true
	}
	return skippedValueFlags[name]
}

func (p *curlParser) apply(name string, flag, value token) error {
	switch name {
	case "--request":
		method, err := core.ParseMethod(value.value)
		if err != nil {
			return parseErrorAt(value, "unsupported method")
		}
		p.method = method
		p.methodSet = true

	case "--header":
		headerName, headerValue, err := parseHeader(value)
		if err != nil {
			return err
		}
		p.headers.Add(headerName, headerValue)

	case "--data", "--data-ascii", "--data-binary", "--data-raw":
		if name != "--data-raw" && strings.HasPrefix(value.value, "@") {
			p.warnf("file reference %s is not read; using it literally", value.value)
		}
		p.data = append(p.data, value.value)
	case "--data-urlencode":
		p.data = append(p.data, urlencodeData(value.value))
	case "--json":
		p.data = append(p.data, value.value)
		p.json = true

	case "--user":
		user, pass, found := strings.Cut(value.value, ":")
		if !found {
			p.warnf("no password given for user %q", user)
		}
		p.auth = core.NewBasicAuth(user, pass)
	case "--oauth2-bearer":
		p.auth = core.NewBearerAuth(value.value)

	case "--url":
		if p.explicitSeen {
			p.warnf("ignoring extra --url %q", value.value)
			break
		}
		p.explicitURL = value.value
		p.explicitSeen = true

	case "--user-agent":
		p.headers.Set("User-Agent", value.value)
	case "--referer":
		p.headers.Set("Referer", value.value)
	case "--cookie":
		if !strings.Contains(value.value, "=") {
			p.warnf("cookie file %q is not read", value.value)
			break
		}
		p.headers.Add("Cookie", value.value)
	case "--max-time":
		seconds, err := strconv.ParseFloat(value.value, 64)
		if err != nil || seconds <= 0 {
			p.warnf("ignoring invalid --max-time %q", value.value)
			break
		}
		p.timeout = time.Duration(seconds * float64(time.Second))

	case "--head":
		p.head = true
	case "--get":
		p.get = true
	case "--form", "--form-string":
		p.warnf("skipping %s: multipart forms are not supported", name)

	default:
		if skippedValueFlags[name] || ignoredBoolFlags[name] {
			return nil
		}
		p.warnf("skipping unknown option %s", flag.value)
	}
	return nil
}

func (p *curlParser) next(flag token) (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, parseErrorAt(flag, "missing argument")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *curlParser) addPositional(tok token) {
	if p.positional != "" {
		p.warnf("ignoring extra URL %q", tok.value)
		return
	}
	p.positional = tok.value
}

func (p *curlParser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *curlParser) result() (*ParseResult, error) {
	rawURL := p.positional
	if p.explicitSeen {
		if p.positional != "" {
			p.warnf("--url overrides %q", p.positional)
		}
		rawURL = p.explicitURL
	}
	if strings.TrimSpace(rawURL) == "" {
		return nil, &CurlParseError{Position: len(p.input), Reason: "no URL"}
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}

	body := strings.Join(p.data, "&")
	if p.get && body != "" {
		rawURL = appendQuery(rawURL, body)
		body = ""
	}

	spec := core.NewRequestSpec(p.resolveMethod(body != ""), rawURL)
	spec.Headers = p.headers
	spec.Auth = p.auth
	if body != "" {
		spec.Body = []byte(body)
		if p.json {
			if !spec.Headers.Has("Content-Type") {
				spec.Headers.Add("Content-Type", "application/json")
			}
			if !spec.Headers.Has("Accept") {
				spec.Headers.Add("Accept", "application/json")
			}
		}
		if !spec.Headers.Has("Content-Type") {
			spec.ContentType = "application/x-www-form-urlencoded"
		}
	}

	return &ParseResult{
		Spec:     spec,
		Name:     generateNameFromURL(rawURL),
		Timeout:  p.timeout,
		Warnings: p.warnings,
	}, nil
}

func (p *curlParser) resolveMethod(hasBody bool) core.Method {
	switch {
	case p.methodSet:
		return p.method
	case p.head:
		return core.MethodHead
	case p.get:
		return core.MethodGet
	case hasBody:
		return core.MethodPost
	default:
		return core.MethodGet
	}
}

func parseHeader(tok token) (string, string, error) {
	raw := tok.value
	name, value, found := strings.Cut(raw, ":")
	if !found {
		// curl's "Name;" form sends a header with an empty value.
		if trimmed := strings.TrimSpace(raw); strings.HasSuffix(trimmed, ";") && len(trimmed) > 1 {
			return strings.TrimSpace(strings.TrimSuffix(trimmed, ";")), "", nil
		}
		return "", "", parseErrorAt(tok, "header is missing ':'")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", parseErrorAt(tok, "header has no name")
	}
	return name, strings.TrimSpace(value), nil
}

// urlencodeData follows curl's --data-urlencode forms: "content",
// "=content" and "name=content".
func urlencodeData(value string) string {
	name, content, found := strings.Cut(value, "=")
	switch {
	case !found:
		return url.QueryEscape(value)
	case name == "":
		return url.QueryEscape(content)
	default:
		return name + "=" + url.QueryEscape(content)
	}
}

func appendQuery(rawURL, query string) string {
	fragment := ""
	if idx := strings.IndexByte(rawURL, '#'); idx >= 0 {
		rawURL, fragment = rawURL[:idx], rawURL[idx:]
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + query + fragment
}

// tokenize splits the command like a POSIX shell: single quotes are literal,
// double quotes honour backslash escapes, and backslash-newline continues a
// line. Each token records the byte offset where it starts.
func tokenize(input string) ([]token, error) {
	var tokens []token
	var current strings.Builder
	start := -1
	var quote byte
	quoteStart := 0

	flush := func() {
		if start >= 0 {
			tokens = append(tokens, token{value: current.String(), pos: start})
		}
		current.Reset()
		start = -1
	}
	begin := func(i int) {
		if start < 0 {
			start = i
		}
	}

	for i := 0; i < len(input); {
		c := input[i]

		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				current.WriteByte(c)
			}
			i++

		case quote == '"':
			switch {
			case c == '"':
				quote = 0
				i++
			case c == '\\' && i+1 < len(input):
				next := input[i+1]
				switch next {
				case '"', '\\', '$', '`':
					current.WriteByte(next)
				case '\n':
				default:
					current.WriteByte(c)
					current.WriteByte(next)
				}
				i += 2
			default:
				current.WriteByte(c)
				i++
			}

		case c == '\\':
			if i+1 >= len(input) {
				i++
				continue
			}
			if input[i+1] == '\n' {
				i += 2
				continue
			}
			if input[i+1] == '\r' && i+2 < len(input) && input[i+2] == '\n' {
				i += 3
				continue
			}
			begin(i)
			_, size := utf8.DecodeRuneInString(input[i+1:])
			current.WriteString(input[i+1 : i+1+size])
			i += 1 + size

		case c == '\'' || c == '"':
			begin(i)
			quote = c
			quoteStart = i
			i++

		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
			i++

		default:
			begin(i)
			current.WriteByte(c)
			i++
		}
	}

	if quote != 0 {
		return nil, &CurlParseError{
			Token:    input[quoteStart:],
			Position: quoteStart,
			Reason:   "unterminated quote",
		}
	}
	flush()
	return tokens, nil
}

func generateNameFromURL(rawURL string) string {
	name := rawURL
	if idx := strings.Index(name, "://"); idx >= 0 {
		name = name[idx+3:]
	}

	if idx := strings.Index(name, "/"); idx >= 0 {
		path := name[idx:]
		if qIdx := strings.IndexAny(path, "?#"); qIdx >= 0 {
			path = path[:qIdx]
		}
		segments := strings.Split(strings.Trim(path, "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
		name = name[:idx]
	}

	if idx := strings.IndexAny(name, ":?#"); idx >= 0 {
		name = name[:idx]
	}
	return name
}
