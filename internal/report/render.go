package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// latexReplacer escapes the characters LaTeX treats specially in table cells.
var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
)

func latexEscape(text string) string {
	if strings.TrimSpace(text) == "" {
		return "-"
	}
	s := latexReplacer.Replace(text)
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// WriteCSV renders the aggregated rows as CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"model", "property", "answer",
		"original_v", "first_v", "chosen_v",
		"original_time", "first_time", "detection", "chosen_time",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Model, r.Property, r.Answer,
			r.OriginalVertices, r.FirstVertices, r.ChosenVertices,
			formatTime(r.OriginalTime), r.FirstTime, r.Detection, formatTime(r.ChosenTime),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLaTeX renders the aggregated rows as a standalone LaTeX document with
// a booktabs comparison table.
func WriteLaTeX(w io.Writer, rows []Row, title string) error {
	body := make([]string, 0, len(rows))
	for _, r := range rows {
		body = append(body, strings.Join([]string{
			latexEscape(r.Model),
			latexEscape(r.Property),
			r.Answer,
			latexEscape(r.OriginalVertices),
			latexEscape(r.FirstVertices),
			latexEscape(r.ChosenVertices),
			formatTime(r.OriginalTime),
			r.FirstTime,
			latexEscape(r.Detection),
			formatTime(r.ChosenTime),
		}, " & "))
	}

	_, err := fmt.Fprintf(w, `\documentclass{article}
\usepackage[table]{xcolor}
\usepackage{booktabs}
\usepackage{geometry}
\usepackage{graphicx}
\usepackage{amssymb}
\geometry{margin=1in}

\definecolor{rowgray}{gray}{0.9}

\title{%s}
\date{}

\begin{document}
\maketitle

\begin{table}[ht]
\centering
\small

\resizebox{\linewidth}{!}{%%
\rowcolors{3}{white}{rowgray}
\begin{tabular}{llc|rrr|rrrr}
 &  &  & \multicolumn{3}{c|}{$|V|$} & \multicolumn{4}{c}{Time} \\
\midrule
Model & Property & Result & \multicolumn{1}{c}{Original} & \multicolumn{1}{c}{First} & \multicolumn{1}{c|}{Chosen} & \multicolumn{1}{c}{Original} & \multicolumn{1}{c}{First} & \multicolumn{1}{c}{Detection} & \multicolumn{1}{c}{Chosen} \\
\midrule
%s \\
\bottomrule
\end{tabular}
}
\caption{%s}
\end{table}

\end{document}
`, latexEscape(title), strings.Join(body, " \\\\\n"), latexEscape(title))
	return err
}
