package server

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>bugtree: {{.Title}}</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 1rem 2rem;
      background-color: #f8f9fa;
      color: #212529;
    }

    @media (prefers-color-scheme: dark) {
      body { background-color: #1a1a2e; color: #e0e0e0; }
      .controls a { background-color: #2d2d44; color: #e0e0e0; border-color: #444; }
      .bug .pos { color: #9aa0a6; }
    }

    h1 { font-size: 1.4rem; font-weight: 600; margin: 1rem 0 0.25rem; }
    .meta { font-size: 0.85rem; opacity: 0.8; margin-bottom: 1rem; }

    .controls { display: flex; gap: 0.5rem; flex-wrap: wrap; margin-bottom: 1rem; }
    .controls a {
      padding: 0.3rem 0.8rem;
      font-size: 0.9rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      color: #212529;
      text-decoration: none;
    }
    .controls a.active { background-color: #2374ab; border-color: #1a5a8a; color: #fff; }

    details { margin-left: 1.2rem; }
    details > summary { cursor: pointer; padding: 0.15rem 0; }
    .tree > details { margin-left: 0; }
    .count { opacity: 0.7; font-size: 0.85rem; }
    ul.bugs { list-style: none; margin: 0.2rem 0 0.4rem 1.2rem; padding: 0; }
    .bug { font-size: 0.9rem; padding: 0.1rem 0; }
    .bug .pos { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; color: #6c757d; }
    .prio-1 .msg { color: #d9534f; }
    .prio-2 .msg { color: #c77c02; }

    .diagram { margin-top: 2rem; overflow: auto; }
    .diagram h2 { font-size: 1.1rem; }
  </style>
</head>
<body>
  <h1>bugtree: {{.Title}}</h1>
  <div class="meta">{{.Summary}}{{if .RunID}} &middot; run {{.RunID}}{{end}} &middot; <a href="/tree.json{{.Query}}">tree.json</a> &middot; <a href="/mermaid.md{{.Query}}">mermaid.md</a></div>

  <div class="controls">
    {{range .Presets}}<a href="/?group_by={{.Name}}"{{if .Active}} class="active"{{end}}>{{.Name}}</a>
    {{end}}
  </div>

  <div class="tree">
    {{range .View.Groups}}{{template "group" .}}{{else}}<p>No findings.</p>{{end}}
  </div>

  {{range .Slides}}
  <div class="diagram">
    <h2>{{.Title}}</h2>
    <pre class="mermaid">{{.Mermaid}}</pre>
  </div>
  {{end}}

  <script src="https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"></script>
  <script>
    mermaid.initialize({
      startOnLoad: true,
      theme: 'base',
      flowchart: { htmlLabels: true },
      themeVariables: {
        primaryColor: '#ffffff',
        primaryBorderColor: '#cccccc',
        primaryTextColor: '#000000',
        lineColor: '#555555',
        fontSize: '16px'
      }
    });
  </script>
</body>
</html>

{{define "group"}}<details>
  <summary>{{.Label}} <span class="count">({{.Count}})</span></summary>
  {{range .Groups}}{{template "group" .}}{{end}}
  {{if .Bugs}}<ul class="bugs">
    {{range .Bugs}}<li class="bug prio-{{printf "%d" .Priority}}" id="bug-{{.ID}}"><span class="pos">{{.Position}}</span> <span class="msg">{{.Message}}</span></li>
    {{end}}
  </ul>{{end}}
</details>
{{end}}
`
