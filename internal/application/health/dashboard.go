package health

import (
	"bytes"
	"encoding/json"
	"html/template"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>NFT Market · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ink: #1e1b4b; --brand: #4f46e5; --bg: #f5f5fb; --muted: #64748b; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .container { width: 100%; max-width: 1100px; padding: 0 20px; }
    h1 { font-size: clamp(30px, 5vw, 54px); font-weight: 900; letter-spacing: -2px; text-align: center; margin: 0 0 8px; }
    h1.bad { color: #b91c1c; }
    .subtext { text-align: center; color: var(--muted); font-weight: 700; margin-bottom: 28px; }
    .card { background: #fff; border-radius: 24px; box-shadow: 0 30px 80px -20px rgba(79, 70, 229, 0.15); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(4, 1fr); }
    .col { padding: 36px; border-right: 1px solid #eef; }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 38px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 7px 0; border-bottom: 1px solid #f4f4f8; font-size: 14px; font-weight: 700; }
    .row:last-child { border-bottom: none; }
    .ok { color: var(--brand); }
    .err { color: #ef4444; }
    .footer { background: #fafaff; padding: 16px 36px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; }
    .actions { text-align: center; margin-top: 24px; }
    button { background: transparent; border: 1px solid #dde; border-radius: 10px; padding: 8px 18px; font-weight: 800; cursor: pointer; }
    pre { text-align: left; background: #fff; border-radius: 16px; padding: 20px; max-height: 40vh; overflow: auto; display: none; }
    @media (max-width: 900px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid #eef; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline" class="{{if ne .Status "ok"}}bad{{end}}">{{if eq .Status "ok"}}All Systems Operational{{else}}System Issues Detected{{end}}</h1>
    <p class="subtext">Marketplace API performance, settlement state and dependencies.</p>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">{{.Traffic.TotalRequests}}</div>
          <div class="row"><span>Successful</span><span id="success-count" class="ok">{{.Traffic.SuccessCount}}</span></div>
          <div class="row"><span>Failed</span><span id="failed-count" class="err">{{.Traffic.FailedCount}}</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">{{.Traffic.SuccessRate}}%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">{{.Traffic.AvgResponseTime}}ms</span></div>
        </div>
        <div class="col">
          <div class="label">Market</div>
          {{with .Market}}
          <div class="big" id="trades">{{.Trades}}</div>
          <div class="row"><span>Active Listings</span><span id="listings">{{.ActiveListings}}</span></div>
          <div class="row"><span>Active Offers</span><span id="offers">{{.ActiveOffers}}</span></div>
          <div class="row"><span>Last Event</span><span id="last-seq">#{{.LastEventSeq}}</span></div>
          {{else}}
          <div class="big err">n/a</div>
          {{end}}
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">{{.Runtime.UptimeSeconds}}s</div>
          <div class="row"><span>Heap Used</span><span id="mem-heap">{{.Runtime.Memory.HeapUsed}} MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">{{.Runtime.Goroutines}}</span></div>
          <div class="row"><span>Go</span><span>{{.Runtime.GoVersion}}</span></div>
          <div class="row"><span>Platform</span><span style="font-size:10px">{{.Runtime.Platform}}</span></div>
        </div>
        <div class="col">
          <div class="label">Connectivity</div>
          {{range $name, $dep := .Dependencies}}
          <div class="row"><span>{{$name}}</span><span class="{{if eq $dep.Status "connected"}}ok{{else}}err{{end}}">{{$dep.Status}}{{with $dep.PingMs}} · {{.}} ms{{end}}</span></div>
          {{end}}
        </div>
      </div>
      <div class="footer">
        <span>LAST INBOUND</span>
        <span id="last-req">{{.LastMethod}} {{.LastPath}}</span>
      </div>
    </div>
    <div class="actions"><button onclick="showErrors()">View Error Log</button></div>
    <pre id="errors"></pre>
  </div>
  <script>
    const initial = {{.Payload}};
    async function showErrors() {
      const box = document.getElementById('errors');
      box.style.display = 'block';
      box.textContent = 'Fetching logs...';
      try { const r = await fetch('/health/errors'); box.textContent = JSON.stringify(await r.json(), null, 2); }
      catch (e) { box.textContent = 'Error loading logs.'; }
    }
    setInterval(async () => {
      try {
        const d = await (await fetch('/health/json')).json();
        document.getElementById('total-req').innerText = d.traffic.totalRequests;
        document.getElementById('success-count').innerText = d.traffic.successCount;
        document.getElementById('failed-count').innerText = d.traffic.failedCount;
        document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
        document.getElementById('uptime').innerText = d.runtime.uptimeSeconds + 's';
        if (d.market && document.getElementById('trades')) {
          document.getElementById('trades').innerText = d.market.trades;
          document.getElementById('listings').innerText = d.market.activeListings;
          document.getElementById('offers').innerText = d.market.activeOffers;
          document.getElementById('last-seq').innerText = '#' + d.market.lastEventSequence;
        }
      } catch (e) {}
    }, 10000);
    console.debug('health', initial);
  </script>
</body>
</html>`))

type dashboardView struct {
	CollectResult
	LastMethod string
	LastPath   string
	Payload    template.JS
}

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) (string, error) {
	view := dashboardView{CollectResult: health, LastMethod: "-", LastPath: "-"}
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			view.LastMethod = v
		}
		if v, ok := m["path"].(string); ok {
			view.LastPath = v
		}
	}
	payload, err := json.Marshal(health)
	if err != nil {
		return "", err
	}
	view.Payload = template.JS(payload)

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
