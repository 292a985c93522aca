package placement

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ClientRegisterFunc is the client-side function each record is passed to.
const ClientRegisterFunc = "Adgeletti.position"

// SizePair encodes a size as [width, height].
type SizePair [2]int

// Record is one resolved ad position as the client consumes it. Field names
// and order are part of the client contract.
type Record struct {
	Breakpoint string     `json:"breakpoint"`
	AdUnitID   string     `json:"ad_unit_id"`
	Sizes      []SizePair `json:"sizes"`
	DivID      string     `json:"div_id"`
}

// Block is the script element emitted by Resolve. A Block with no records is
// still valid output. Notes are written as line comments at the top of the
// script.
type Block struct {
	Notes   []string
	Records []Record
}

// WriteTo writes the script element. Record payloads go through
// encoding/json, which escapes <, > and & so a value cannot end the script.
func (b *Block) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("<script type=\"text/javascript\">\n")
	for _, note := range b.Notes {
		sb.WriteString("// ")
		sb.WriteString(scriptCommentReplacer.Replace(note))
		sb.WriteByte('\n')
	}
	for _, record := range b.Records {
		if record.Sizes == nil {
			record.Sizes = []SizePair{}
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("encode ad position %s: %w", record.DivID, err)
		}
		sb.WriteString(ClientRegisterFunc)
		sb.WriteByte('(')
		sb.Write(payload)
		sb.WriteString(");\n")
	}
	sb.WriteString("</script>\n")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// scriptCommentReplacer keeps a note on one comment line and stops it from
// closing the script element.
var scriptCommentReplacer = strings.NewReplacer(
	"\r", " ",
	"\n", " ",
	"\u2028", " ",
	"\u2029", " ",
	"<", "\\u003c",
)

// HTML returns the script element as a string.
func (b *Block) HTML() (string, error) {
	var sb strings.Builder
	if _, err := b.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
