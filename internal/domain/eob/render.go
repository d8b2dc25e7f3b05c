package eob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// Renderer converts the internal document model into one external
// representation.
type Renderer interface {
	ContentType() string
	Render(d *Document) ([]byte, error)
}

// JSONRenderer emits the structured encoding.
type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// EncodeJSON is a convenience wrapper around JSONRenderer.
func EncodeJSON(d *Document) ([]byte, error) {
	return JSONRenderer{}.Render(d)
}

var htmlTemplate = template.Must(template.New("eob").Funcs(template.FuncMap{
	"cents": FormatCents,
}).Parse(`<!DOCTYPE html>
<html>
<head><title>Explanation of Benefits {{.EOBNumber}}</title></head>
<body>
<h1>Explanation of Benefits</h1>
<p>Document {{.EOBNumber}} issued {{.IssuedAt.Format "2006-01-02"}}</p>
<p>Claim {{.ClaimID}} &mdash; status <strong>{{.Status}}</strong></p>
<table>
<tr><th>Procedure</th><th>Billed</th></tr>
{{range .Lines}}<tr><td>{{.ProcedureCode}}</td><td>{{cents .BilledCents}}</td></tr>
{{end}}</table>
<h2>Summary</h2>
<ul>
<li>Billed: {{cents .Totals.BilledCents}}</li>
<li>Network discount: {{cents .Totals.DiscountCents}}</li>
<li>Deductible: {{cents .Totals.DeductibleCents}}</li>
<li>Copay: {{cents .Totals.CopayCents}}</li>
<li>Coinsurance: {{cents .Totals.CoinsuranceCents}}</li>
<li>Your responsibility: {{cents .Totals.MemberResponsibilityCents}}</li>
<li>Plan pays: {{cents .Totals.InsurerPaysCents}}</li>
</ul>
{{if .Notes}}<h2>Notes</h2>
<ul>{{range .Notes}}<li>{{.}}</li>{{end}}</ul>
{{end}}</body>
</html>
`))

// HTMLRenderer emits member-facing markup.
type HTMLRenderer struct{}

func (HTMLRenderer) ContentType() string { return "text/html" }

func (HTMLRenderer) Render(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render eob html: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHTML is a convenience wrapper around HTMLRenderer.
func RenderHTML(d *Document) ([]byte, error) {
	return HTMLRenderer{}.Render(d)
}

// TextRenderer emits a plain-text summary.
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain" }

func (TextRenderer) Render(d *Document) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "EXPLANATION OF BENEFITS %s\n", d.EOBNumber)
	fmt.Fprintf(&b, "Issued: %s\n", d.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Claim: %s\n", d.ClaimID)
	fmt.Fprintf(&b, "Status: %s\n\n", d.Status)
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "  %-12s %12s\n", line.ProcedureCode, FormatCents(line.BilledCents))
	}
	fmt.Fprintf(&b, "\nBilled:              %12s\n", FormatCents(d.Totals.BilledCents))
	fmt.Fprintf(&b, "Network discount:    %12s\n", FormatCents(d.Totals.DiscountCents))
	fmt.Fprintf(&b, "Deductible:          %12s\n", FormatCents(d.Totals.DeductibleCents))
	fmt.Fprintf(&b, "Copay:               %12s\n", FormatCents(d.Totals.CopayCents))
	fmt.Fprintf(&b, "Coinsurance:         %12s\n", FormatCents(d.Totals.CoinsuranceCents))
	fmt.Fprintf(&b, "Your responsibility: %12s\n", FormatCents(d.Totals.MemberResponsibilityCents))
	fmt.Fprintf(&b, "Plan pays:           %12s\n", FormatCents(d.Totals.InsurerPaysCents))
	if len(d.Notes) > 0 {
		b.WriteString("\nNotes:\n")
		for _, note := range d.Notes {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	return []byte(b.String()), nil
}

// RenderText is a convenience wrapper around TextRenderer.
func RenderText(d *Document) ([]byte, error) {
	return TextRenderer{}.Render(d)
}
