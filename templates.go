package pitwall

import (
	"html/template"

	"github.com/Masterminds/sprig"
	"github.com/russross/blackfriday"

	"justapengu.in/pitwall/pkg/timing"
)

type pageData struct {
	Title     string
	Subheader string
	Mode      string
	Modes     []string

	// Error is set when the session could not be loaded, nothing below the selector is rendered.
	Error string

	Qualifying *qualifyingView
	Race       *raceView
	Insights   string
}

type metricCard struct {
	Label string
	Value string
	// Detail is a secondary line under the value, e.g. sector times.
	Detail string
	Delta  string
	// DeltaGood colours the delta green, otherwise it is red.
	DeltaGood bool
}

type qualifyingView struct {
	Cards      []metricCard
	SpeedChart string
}

type raceView struct {
	Cards         []metricCard
	PositionChart string
	LapTimeChart  string
	TyreChart     string
}

func renderMarkdown(s string) template.HTML {
	return template.HTML(blackfriday.Run([]byte(s)))
}

var (
	pageTemplateFuncMap = template.FuncMap{
		"FormatLapTime": timing.FormatLapTime,
		"Markdown":      renderMarkdown,
	}

	pageTemplate = template.Must(template.New("page").Funcs(sprig.FuncMap()).Funcs(pageTemplateFuncMap).Parse(pageHTML))
)

const pageHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ $.Title | trimSuffix ":" }}</title>
<style>
	body { font-family: sans-serif; max-width: 1100px; margin: 0 auto; padding: 1rem 2rem; color: #31333f; }
	.columns { display: flex; gap: 2rem; }
	.metric { flex: 1; }
	.metric .label { font-size: 0.9rem; }
	.metric .value { font-size: 2.2rem; }
	.metric .detail { font-size: 0.8rem; color: #808495; }
	.delta { display: inline-block; padding: 0 0.4rem; border-radius: 1rem; }
	.delta.good { color: #09ab3b; background: #e8f8ed; }
	.delta.bad { color: #ff2b2b; background: #ffe8e8; }
	.error { color: #7d353b; background: #ffe8e8; padding: 1rem; border-radius: 0.5rem; }
	img.chart { width: 100%; }
</style>
</head>
<body>
<h1>{{ $.Title }}</h1>
<h3>{{ $.Subheader }}</h3>
<p><em>Comparing qualifying performance vs race pace</em></p>

<form method="get" action="/">
	<p>Select session:</p>
	{{- range $mode := $.Modes }}
	<label>
		<input type="radio" name="session" value="{{ $mode }}" onchange="this.form.submit()" {{ if eq $mode $.Mode }}checked{{ end }}>
		{{ $mode }}
	</label>
	{{- end }}
	<noscript><button type="submit">Show</button></noscript>
</form>

{{ if $.Error }}
	<div class="error">Error loading session: {{ $.Error }}</div>
{{ else }}
	<h2>⏱️ {{ $.Mode }} Performance</h2>

	{{ with $.Qualifying }}
		<div class="columns">
			{{- range $card := .Cards }}
			<div class="metric">
				<div class="label">{{ $card.Label }}</div>
				<div class="value">{{ $card.Value }}</div>
				{{- with $card.Detail }}
				<div class="detail">{{ . }}</div>
				{{- end }}
				{{- if $card.Delta }}
				<div class="delta {{ ternary "good" "bad" $card.DeltaGood }}">{{ $card.Delta }}</div>
				{{- end }}
			</div>
			{{- end }}
		</div>

		<h3>📊 Speed Trace Comparison</h3>
		<img class="chart" src="{{ .SpeedChart }}" alt="Speed trace comparison">

		<h3>🔍 Qualifying Insights</h3>
	{{ end }}

	{{ with $.Race }}
		<h3>🏎️ Race Performance Comparison</h3>
		<div class="columns">
			{{- range $card := .Cards }}
			<div class="metric">
				<div class="label">{{ $card.Label }}</div>
				<div class="value">{{ $card.Value }}</div>
				{{- with $card.Detail }}
				<div class="detail">{{ . }}</div>
				{{- end }}
				{{- if $card.Delta }}
				<div class="delta {{ ternary "good" "bad" $card.DeltaGood }}">{{ $card.Delta }}</div>
				{{- end }}
			</div>
			{{- end }}
		</div>

		<h3>📈 Position Changes</h3>
		<img class="chart" src="{{ .PositionChart }}" alt="Race position evolution">

		<h3>📉 Lap Time Degradation</h3>
		<img class="chart" src="{{ .LapTimeChart }}" alt="Lap time progression">

		<h3>🔄 Tire Strategy</h3>
		<img class="chart" src="{{ .TyreChart }}" alt="Tire compound usage">

		<h3>🔍 Race Insights</h3>
	{{ end }}

	{{ Markdown $.Insights }}

	<hr>
{{ end }}
</body>
</html>
`
