// Package payslip renders single-page payslip PDFs using the built-in
// Helvetica font, so no font files are needed at runtime.
package payslip

import (
	"bytes"
	"fmt"
	"strings"
)

const ContentType = "application/pdf"

// Row is a label/value pair. Rows with an empty Value render as section
// headings.
type Row struct {
	Label string
	Value string
}

type Document struct {
	CompanyName  string
	Title        string
	EmployeeName string
	EmployeeCode string
	Period       string
	Rows         []Row
	NetLabel     string
	NetValue     string
	Footer       string
}

const (
	pageWidth   = 595
	pageHeight  = 842
	marginLeft  = 50
	valueRight  = 545
	lineHeight  = 16
	maxRows     = 40
	avgCharWide = 0.5 // fraction of the font size, good enough for right-aligning Helvetica digits
)

// Render returns the PDF bytes for d. Rows beyond what fits on one page
// are truncated.
func Render(d Document) []byte {
	var content strings.Builder
	y := pageHeight - 60

	text := func(size, x, y int, s string) {
		fmt.Fprintf(&content, "BT /F%d %d Tf %d %d Td (%s) Tj ET\n", fontFor(size), size, x, y, escape(s))
	}
	right := func(size, y int, s string) {
		x := valueRight - int(float64(len(s)*size)*avgCharWide)
		text(size, x, y, s)
	}
	rule := func(y int) {
		fmt.Fprintf(&content, "0.5 w %d %d m %d %d l S\n", marginLeft, y, valueRight, y)
	}

	text(18, marginLeft, y, d.CompanyName)
	y -= 24
	text(13, marginLeft, y, d.Title)
	y -= 28
	text(10, marginLeft, y, "Employee: "+d.EmployeeName)
	if d.EmployeeCode != "" {
		right(10, y, d.EmployeeCode)
	}
	y -= lineHeight
	text(10, marginLeft, y, "Period: "+d.Period)
	y -= 10
	rule(y)
	y -= 20

	rows := d.Rows
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, r := range rows {
		if r.Value == "" {
			y -= 4
			text(11, marginLeft, y, r.Label)
		} else {
			text(10, marginLeft+10, y, r.Label)
			right(10, y, r.Value)
		}
		y -= lineHeight
	}

	y -= 4
	rule(y)
	y -= 22
	text(13, marginLeft, y, d.NetLabel)
	right(13, y, d.NetValue)

	if d.Footer != "" {
		text(8, marginLeft, 40, d.Footer)
	}

	return assemble(content.String())
}

// fontFor picks bold for headings.
func fontFor(size int) int {
	if size >= 11 {
		return 2
	}
	return 1
}

func assemble(stream string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 4 0 R /F2 5 0 R >> >> /Contents 6 0 R >>", pageWidth, pageHeight),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

var escaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", " ", "\n", " ")

// winAnsi maps the runes WinAnsiEncoding places in 0x80-0x9F.
var winAnsi = map[rune]byte{
	'€': 0x80, '‚': 0x82, 'ƒ': 0x83, '„': 0x84, '…': 0x85, '†': 0x86, '‡': 0x87,
	'ˆ': 0x88, '‰': 0x89, 'Š': 0x8A, '‹': 0x8B, 'Œ': 0x8C, 'Ž': 0x8E,
	'‘': 0x91, '’': 0x92, '“': 0x93, '”': 0x94, '•': 0x95, '–': 0x96, '—': 0x97,
	'˜': 0x98, '™': 0x99, 'š': 0x9A, '›': 0x9B, 'œ': 0x9C, 'ž': 0x9E, 'Ÿ': 0x9F,
}

// encode returns the WinAnsi byte for r.
func encode(r rune) (byte, bool) {
	if b, ok := winAnsi[r]; ok {
		return b, true
	}
	if r < 0x80 || (r >= 0xA0 && r <= 0xFF) {
		return byte(r), true
	}
	return 0, false
}

// Encodable reports whether every character of s can be drawn with the
// standard fonts.
func Encodable(s string) bool {
	for _, r := range s {
		if _, ok := encode(r); !ok {
			return false
		}
	}
	return true
}

// escape makes s safe inside a PDF literal string. Characters WinAnsi
// cannot represent are replaced with '?'.
func escape(s string) string {
	s = escaper.Replace(s)
	var b strings.Builder
	for _, r := range s {
		c, ok := encode(r)
		switch {
		case !ok:
			b.WriteByte('?')
		case c < 0x20:
			b.WriteByte(' ')
		case c < 0x80:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\%03o`, c)
		}
	}
	return b.String()
}
