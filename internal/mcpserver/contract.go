package mcpserver

// NoteFormatContract describes the canonical hybrid document format that
// LLM consumers should follow when creating or updating documents.
const NoteFormatContract = `# Ansuz Document Format Contract

Every document stored in Ansuz is a hybrid: an ordered sequence of typed
blocks. The block boundaries below are detected automatically; content
inside a block is never reinterpreted.

## Block types

` + "````" + `markdown
Prose in standard Markdown, with [[wikilinks]] and inline #tags.
Blank lines stay inside the prose block.

#+BEGIN_SRC python
print("org source block")
#+END_SRC

` + "```" + `go
fmt.Println("fenced code block")
` + "```" + `

$$
\int_0^1 x^2 \, dx
$$
` + "````" + `

## Rules

1. **Org blocks** open with ` + "`" + `#+BEGIN_<NAME>` + "`" + ` and close with the matching
   ` + "`" + `#+END_<NAME>` + "`" + ` (case-insensitive). Everything between is literal.
2. **Code fences** open with three backticks plus an optional language tag
   and close with three bare backticks. Markers inside an open block are
   literal text.
3. **Display math** uses ` + "`" + `$$...$$` + "`" + ` (same line or spanning lines) or
   ` + "`" + `\[` + "`" + `/` + "`" + `\]` + "`" + ` on their own lines.
4. **Headings**: Markdown ` + "`" + `# Title` + "`" + ` (optionally with a trailing
   ` + "`" + `{#anchor}` + "`" + `), or Org ` + "`" + `* Title` + "`" + ` headlines in .org files.
5. **Workflow states** on Org headlines: TODO, DONE, WAITING, CANCELLED,
   e.g. ` + "`" + `* TODO Ship release` + "`" + `.
6. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + ` or
   ` + "`" + `[[target|alias]]` + "`" + `.
7. **File paths** end with ` + "`" + `.md` + "`" + `, ` + "`" + `.org` + "`" + `, or ` + "`" + `.tex` + "`" + ` and use
   forward slashes.
8. **Encoding** is UTF-8 with a trailing newline.
9. Unterminated blocks are closed at end of document; avoid relying on
   that recovery.

## Example

` + "```" + `markdown
# Weekly notes {#weekly}

Progress on [[project-x]]. #planning

#+BEGIN_SRC sh
make release
#+END_SRC

$$E = mc^2$$
` + "```" + `
`
