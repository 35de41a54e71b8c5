package parser

import "github.com/qkvdb/qkvdb/ast"

// ParseCommands splits a multi-command request body into individual
// `;`-terminated commands and parses each one. `//` begins a line comment
// that runs to the next newline; comment text is stripped before it ever
// reaches the tokenizer. A trailing command with no terminating `;` is
// discarded: only buffer content flushed by a `;` is parsed.
func ParseCommands(content string) ([]ast.Command, error) {
	var commands []ast.Command
	var buf []byte
	inComment := false

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			inComment = true
			i++
		case c == ';':
			buf = append(buf, c)
			cmd, err := New(string(buf)).Parse()
			if err != nil {
				return commands, err
			}
			commands = append(commands, cmd)
			buf = buf[:0]
		default:
			buf = append(buf, c)
		}
	}

	return commands, nil
}
