// Package errmsg holds user-facing error messages whose arguments are kept
// apart from the template until rendering.
package errmsg

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is a template with positional placeholders ({0}, {1}, ...) and
// the arguments that fill them.
type Message struct {
	Format string
	Args   []any
}

func New(format string, args ...any) Message {
	return Message{Format: format, Args: args}
}

// String renders the message. Placeholders without a matching argument are
// left untouched.
func (m Message) String() string {
	if len(m.Args) == 0 {
		return m.Format
	}

	var b strings.Builder
	rest := m.Format
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += open

		b.WriteString(rest[:open])
		idx, err := strconv.Atoi(rest[open+1 : end])
		if err != nil || idx < 0 || idx >= len(m.Args) {
			b.WriteString(rest[open : end+1])
		} else {
			b.WriteString(fmt.Sprint(m.Args[idx]))
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// List is an ordered collection of messages.
type List []Message

func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, m := range l {
		out[i] = m.String()
	}
	return out
}

func (l List) String() string {
	return strings.Join(l.Strings(), "; ")
}
