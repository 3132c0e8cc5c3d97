package http

import nethttp "net/http"

func consoleHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(consoleHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const consoleHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>SecOps Console API</title>
  <style>
    :root {
      --bg: #0b1020;
      --paper: #121a30;
      --line: #233052;
      --text: #dbe4ff;
      --muted: #8ea0c9;
      --accent: #4f8cff;
      --ok: #3ddc97;
      --bad: #ff6b6b;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.5;
    }

    a { color: var(--accent); text-decoration: none; }
    a:hover { text-decoration: underline; }

    header {
      border-bottom: 1px solid var(--line);
      background: var(--paper);
      padding: 18px 24px;
    }

    header h1 { margin: 0; font-size: 18px; font-weight: 600; }
    header p { margin: 4px 0 0; color: var(--muted); }

    main { max-width: 1080px; margin: 0 auto; padding: 24px; }

    section {
      background: var(--paper);
      border: 1px solid var(--line);
      border-radius: 8px;
      padding: 16px 20px;
      margin-bottom: 18px;
    }

    section h2 { margin: 0 0 10px; font-size: 15px; }

    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); }
    th { color: var(--muted); font-weight: 600; }
    code { color: var(--ok); }

    .pill {
      display: inline-block;
      border: 1px solid var(--line);
      border-radius: 999px;
      padding: 1px 10px;
      color: var(--muted);
      margin-right: 6px;
    }
  </style>
</head>
<body>
  <header>
    <h1>SecOps Console API</h1>
    <p>Backend for the security operations dashboard: threat intelligence, video analytics, and border security modules.</p>
  </header>
  <main>
    <section>
      <h2>Domains</h2>
      <span class="pill">threat-intelligence</span>
      <span class="pill">video-analytics</span>
      <span class="pill">border-security</span>
      <p>Catalog: <a href="/api/v1/domains">/api/v1/domains</a> and
        <code>/api/v1/domains/{domain}/modules</code>.</p>
    </section>
    <section>
      <h2>Module operations</h2>
      <table>
        <tr><th>Operation</th><th>Route</th></tr>
        <tr><td>Upload a sample for analysis</td><td><code>POST /api/v1/modules/{domain}/{module}/upload</code></td></tr>
        <tr><td>Cancel the in-flight upload</td><td><code>POST /api/v1/modules/{domain}/{module}/cancel</code></td></tr>
        <tr><td>Session run history</td><td><code>GET /api/v1/modules/{domain}/{module}/history</code></td></tr>
        <tr><td>Session rollup metrics</td><td><code>GET /api/v1/modules/{domain}/{module}/metrics</code></td></tr>
        <tr><td>Email protection analyze</td><td><code>GET /api/v1/modules/threat-intelligence/email-protection/analyze</code></td></tr>
      </table>
      <p>Requests carry an <code>X-Session-ID</code> header; the server mints one when absent and echoes it back.</p>
    </section>
    <section>
      <h2>Operational</h2>
      <p>
        <a href="/health">/health</a> &middot;
        <a href="/ready">/ready</a> &middot;
        <a href="/metrics">/metrics</a> &middot;
        <a href="/api/v1/metrics/app">/api/v1/metrics/app</a> &middot;
        <a href="/api/v1/config">/api/v1/config</a> &middot;
        <a href="/api/v1/status/endpoints">/api/v1/status/endpoints</a> &middot;
        <a href="/api/v1/status/services">/api/v1/status/services</a>
      </p>
    </section>
  </main>
</body>
</html>
`
