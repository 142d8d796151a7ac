package dashboard

// PageTemplate is the HTML template for the comparative analysis page.
// It is embedded as a Go constant so the server needs no asset files.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1f2937;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #22c55e;
    --section-bg: #f9fafb;
  }
  body.dark {
    --bg: #111827;
    --text: #f9fafb;
    --muted: #9ca3af;
    --border: #374151;
    --section-bg: #1f2937;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: Inter, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.1rem; margin: 0 0 12px; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-end;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .card {
    background: var(--section-bg);
    border: 1px solid var(--border);
    border-radius: 12px;
    padding: 20px;
    margin-bottom: 20px;
  }
  .selectors { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 12px; margin-bottom: 12px; }
  label { display: block; font-size: 0.8rem; font-weight: 600; color: var(--muted); margin-bottom: 4px; }
  select {
    width: 100%;
    padding: 6px 10px;
    border: 1px solid var(--border);
    border-radius: 8px;
    background: var(--bg);
    color: var(--text);
  }
  .chart { width: 100%; display: block; }
  .placeholder { text-align: center; color: var(--muted); padding: 32px 0; }
  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
  th { text-align: left; padding: 6px 8px; border-bottom: 2px solid var(--border); }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); white-space: nowrap; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .toggle { background: none; border: 1px solid var(--border); color: var(--text); border-radius: 8px; padding: 4px 10px; cursor: pointer; }
</style>
</head>
<body class="{{.ThemeName}}" data-category="{{.Category}}" data-api="{{.APIBase}}">

<div class="header">
  <div>
    <h1>{{.Title}}</h1>
    <p class="muted">{{.AssetCount}} assets · generated {{.GeneratedAt}}</p>
  </div>
  <button id="theme-toggle" class="toggle" type="button">{{if .Dark}}Light mode{{else}}Dark mode{{end}}</button>
</div>

{{if .NoData}}
<div class="card"><p class="placeholder" id="no-data">{{.NoDataMessage}}</p></div>
{{else if .NoMetrics}}
<div class="card"><p class="placeholder" id="no-metrics">{{.NoMetricsMessage}}</p></div>
{{else}}
<section class="card" id="{{.Category}}-treemap">
  <h2>Treemap - Comparative Analysis</h2>
  <div class="selectors">
    <div>
      <label for="{{.Category}}-treemap-metric">Metric</label>
      <select id="{{.Category}}-treemap-metric" data-chart="treemap" data-param="metric">
        {{range .TreemapOptions}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
  </div>
  <img class="chart" id="{{.Category}}-treemap-container" src="{{.TreemapURL}}" alt="Treemap">
</section>

<section class="card" id="{{.Category}}-scatter">
  <h2>Comparative Chart - Custom Axes</h2>
  <div class="selectors">
    <div>
      <label for="{{.Category}}-x-metric">X axis</label>
      <select id="{{.Category}}-x-metric" data-chart="scatter" data-param="x">
        {{range .XOptions}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
    <div>
      <label for="{{.Category}}-y-metric">Y axis</label>
      <select id="{{.Category}}-y-metric" data-chart="scatter" data-param="y">
        {{range .YOptions}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
  </div>
  <img class="chart" id="{{.Category}}-bar-container" src="{{.ScatterURL}}" alt="Scatter">
</section>

<section class="card" id="{{.Category}}-history">
  <h2>Price History</h2>
  <div class="selectors">
    <div>
      <label for="{{.Category}}-history-ticker">Asset</label>
      <select id="{{.Category}}-history-ticker" data-chart="history" data-param="ticker">
        {{range .Tickers}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
    <div>
      <label for="{{.Category}}-history-period">Period</label>
      <select id="{{.Category}}-history-period" data-chart="history" data-param="period">
        {{range .Periods}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
  </div>
  <img class="chart" id="{{.Category}}-history-container" src="{{.HistoryURL}}" alt="Price history">
</section>

<section class="card">
  <h2>Metrics</h2>
  <table id="{{.Category}}-metrics-table">
    <thead>
      <tr><th>Ticker</th><th>Name</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
      {{range .Rows}}<tr data-ticker="{{.Ticker}}"><td>{{.Ticker}}</td><td>{{.Name}}</td>{{range .Values}}<td class="num">{{.}}</td>{{end}}</tr>
      {{end}}
    </tbody>
  </table>
</section>
{{end}}

<script src="{{.ScriptURL}}"></script>
</body>
</html>
`
