package pysrc

import (
	"strings"
)

const indentUnit = "    "

type printer struct {
	lines []string
}

// Render prints a module. Top-level compound statements are separated by
// two blank lines; runs of blank lines never exceed two.
func Render(stmts []Stmt) string {
	p := &printer{}
	for _, s := range stmts {
		if isCompound(s) {
			p.gap(2)
			p.stmt(s, 0)
			p.gap(2)
			continue
		}
		p.stmt(s, 0)
	}
	p.trimTrailingBlanks()
	if len(p.lines) == 0 {
		return ""
	}
	return strings.Join(p.lines, "\n") + "\n"
}

// RenderBody prints statements at the given depth without top-level spacing.
func RenderBody(stmts []Stmt, depth int) string {
	p := &printer{}
	p.body(stmts, depth)
	return strings.Join(p.lines, "\n")
}

func isCompound(s Stmt) bool {
	switch s.(type) {
	case *Block:
		return true
	}
	return false
}

func (p *printer) emit(depth int, text string) {
	p.lines = append(p.lines, strings.Repeat(indentUnit, depth)+text)
}

func (p *printer) blank() {
	if n := p.trailingBlanks(); n >= 2 {
		return
	}
	p.lines = append(p.lines, "")
}

// gap makes sure the output ends with at least n blank lines, except at the start.
func (p *printer) gap(n int) {
	if len(p.lines) == 0 {
		return
	}
	for p.trailingBlanks() < n {
		p.lines = append(p.lines, "")
	}
}

func (p *printer) trailingBlanks() int {
	n := 0
	for i := len(p.lines) - 1; i >= 0 && p.lines[i] == ""; i-- {
		n++
	}
	return n
}

func (p *printer) trimTrailingBlanks() {
	for len(p.lines) > 0 && p.lines[len(p.lines)-1] == "" {
		p.lines = p.lines[:len(p.lines)-1]
	}
}

// body prints a suite, falling back to "pass" when it has no statement.
func (p *printer) body(stmts []Stmt, depth int) {
	if !hasCode(stmts) {
		for _, s := range stmts {
			if c, ok := s.(Comment); ok {
				p.stmt(c, depth)
			}
		}
		p.emit(depth, "pass")
		return
	}
	for _, s := range stmts {
		p.stmt(s, depth)
	}
}

// hasCode reports whether a suite contains anything besides comments and blanks.
func hasCode(stmts []Stmt) bool {
	for _, s := range stmts {
		switch v := s.(type) {
		case Comment, Blank:
			continue
		case Raw:
			if strings.TrimSpace(string(v)) == "" {
				continue
			}
		}
		return true
	}
	return false
}

func (p *printer) stmt(s Stmt, depth int) {
	switch v := s.(type) {
	case Line:
		p.emit(depth, string(v))
	case Comment:
		for _, line := range strings.Split(string(v), "\n") {
			line = strings.TrimRight(line, " ")
			if line == "" {
				p.emit(depth, "#")
				continue
			}
			p.emit(depth, "# "+line)
		}
	case Blank:
		p.blank()
	case Raw:
		text := strings.TrimRight(string(v), "\n")
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				p.lines = append(p.lines, "")
				continue
			}
			p.emit(depth, line)
		}
	case *Block:
		for _, d := range v.Decorators {
			p.emit(depth, "@"+strings.TrimPrefix(d, "@"))
		}
		p.emit(depth, v.Header)
		p.body(v.Body, depth+1)
	case *If:
		for i, br := range v.Branches {
			kw := "elif"
			if i == 0 {
				kw = "if"
			}
			p.emit(depth, kw+" "+br.Cond+":")
			p.body(br.Body, depth+1)
		}
		if v.Else != nil {
			if len(v.Branches) == 0 {
				p.body(v.Else, depth)
				return
			}
			p.emit(depth, "else:")
			p.body(v.Else, depth+1)
		}
	case *Try:
		p.emit(depth, "try:")
		p.body(v.Body, depth+1)
		for _, ex := range v.Excepts {
			if ex.Clause == "" {
				p.emit(depth, "except:")
			} else {
				p.emit(depth, "except "+ex.Clause+":")
			}
			p.body(ex.Body, depth+1)
		}
		if v.Finally != nil || len(v.Excepts) == 0 {
			p.emit(depth, "finally:")
			p.body(v.Finally, depth+1)
		}
	}
}
