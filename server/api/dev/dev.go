// Package dev 提供 StackLab 的「內部 Dev Panel」HTTP endpoints。
//
// 目的（ explain the why ）：
//   - 給數學家 / 後端在開發期快速驗證：指定遊戲、落子序列、Seed / Snap，然後執行 Drop 或 Sim。
//   - 支援可回放（replay）：把 Snapshot（Snap）以字串形式在前端顯示，並可貼回後端做 Restore。
//
// 注意（ contract ）：
//   - 這不是 production API；它偏向 debug / tooling，行為允許更寬鬆，但仍需維持 deterministic concludes。
//   - 這裡的錯誤處理走 `httperr.Errs`（以 errs.Warn/errs.Fatal 對應 HTTP response）。
//   - Seed/Snap 的互斥與優先級由前端 + 後端共同保證（Snap takes precedence）。
package dev

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/stacklab"
	"github.com/zintix-labs/stacklab/catalog"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/server/httperr"
	"github.com/zintix-labs/stacklab/server/netsvr"
	"github.com/zintix-labs/stacklab/server/svrcfg"
	"github.com/zintix-labs/stacklab/spec"
)

// devRequest 是 Dev Panel 的「輸入 payload」。
//
// 欄位語意：
//   - `gid` 與 `game` 兩者擇一即可；若兩者同時存在，後端會優先使用 gid 做解析。
//   - `line`：落子序列字串（例如 "I0,Q4,T7"），給 /dev/drop 使用。
//   - `lines` / `drops`：隨機模擬的局數與每局手數，給 /dev/sim 使用。
//
// Seed / Snap：
//   - Seed（int64 string）用於 deterministic 起始；若為空字串則自動生成（crypto/rand）。
//   - Drop 模式的 Snap 是棋盤快照（base64url rows frame）；Sim 模式的 Snap 是 core snapshot。
//   - 若提供 Snap，則後端以 Snap Restore 為準（Snap precedence）。
//
// 注意：
//   - 這個 struct 是 API 邊界用的 DTO；不要把它滲透到 board logic / math domain。
type devRequest struct {
	GID   int64  `json:"gid"`
	Game  string `json:"game"`
	Line  string `json:"line"`
	Lines int    `json:"lines"`
	Drops int    `json:"drops"`
	Seed  string `json:"seed"`
	Snap  string `json:"snap"`
}

// Register 註冊 Dev Panel 的 routes。
//
// Routes：
//   - GET  /dev       ：Dev Panel HTML（內嵌 JS）。
//   - GET  /favicon.svg
//   - GET  /dev/meta  ：回傳 Catalog summary（供前端下拉選單：遊戲清單）。
//   - POST /dev/drop  ：逐手執行落子序列並回傳審計報告（含棋盤 before/after 快照）。
//   - POST /dev/sim   ：執行隨機模擬並回傳統計報表（不回傳逐局 results）。
//
// 依賴（dependency）：
//   - 需要 cfg.Stacklab 已被上層組裝完成並注入；否則會回 errs.Fatal。
func Register(svr netsvr.NetRouter, cfg *svrcfg.SvrCfg) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", devMeta(cfg))
	svr.Post("/dev/drop", devDrop(cfg))
	svr.Post("/dev/sim", devSim(cfg))
}

// devPageHTML 是內嵌的 Dev Panel UI。
//
// UI 行為（contract）：
//   - 遊戲：由 /dev/meta 動態載入。
//   - Seed/Snap 互斥：Snap 非空 → Seed 清空並 disable；反之亦然。Snap takes precedence。
//   - Drop：line 字串直接送後端，heights 逐手顯示。
//   - Sim ：lines 前端 cap 在 3,000,000，drops cap 在 5,000。
const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>StackLab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; box-shadow:0 12px 50px rgba(0,0,0,0.35); }
    h1 { margin: 0 0 16px; font-size: 22px; letter-spacing: 0.3px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(180px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    input:focus, select:focus { outline:1px solid #38bdf8; border-color:#38bdf8; }
    .actions { position:relative; display:flex; gap:10px; align-items:center; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; letter-spacing:0.2px; }
    #btn-drop { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    #btn-clear { background:#1f2937; color:#e2e8f0; border:1px solid #334155; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    input:disabled, select:disabled { opacity: 0.55; cursor: not-allowed; filter: grayscale(0.25); }
    label.is-disabled { opacity: 0.55; }
    .info { position:absolute; left:50%; transform:translateX(-50%); font-size:13px; color:#94a3b8; }
    .info.warn { color:#f87171; font-weight:600; }
    #summary { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:120px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; margin-bottom:12px; }
    #board { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre; display:none; margin-bottom:12px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>StackLab Dev Panel</h1>
    <div class="grid">
      <label>Game
        <select id="game"></select>
      </label>
      <label>Seed (int64)
        <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" />
      </label>
      <label>Snap(base64url)
        <input id="snap" type="text" placeholder="Paste snap (base64url)" />
      </label>
      <label>Line (e.g. I0,Q4,T7)
        <input id="line" type="text" placeholder="piece+column, comma separated" />
      </label>
      <label>Lines
        <input id="lines" type="number" min="1" max="3000000" value="10000" />
      </label>
      <label>Drops / line
        <input id="drops" type="number" min="1" max="5000" value="100" />
      </label>
    </div>
    <div class="actions">
      <button id="btn-drop">Drop</button>
      <button id="btn-sim">Sim</button>
      <button id="btn-clear">Clear</button>
      <span class="info" id="info"></span>
    </div>

    <pre id="board"></pre>
    <pre id="summary"></pre>
  </div>
<script>
const state = { meta: null };
const gameSel = document.getElementById('game');
const seedInput = document.getElementById('seed');
const snapInput = document.getElementById('snap');
const lineInput = document.getElementById('line');
const linesInput = document.getElementById('lines');
const dropsInput = document.getElementById('drops');
const summary = document.getElementById('summary');
const board = document.getElementById('board');
const infoEl = document.getElementById('info');
const btnDrop = document.getElementById('btn-drop');
const btnSim = document.getElementById('btn-sim');
const btnClear = document.getElementById('btn-clear');

function setDisabled(el, disabled) {
  el.disabled = disabled;
  const label = el.closest('label');
  if (label) label.classList.toggle('is-disabled', disabled);
}

function syncInputLocks() {
  const seedValue = seedInput.value.trim();
  const snapValue = snapInput.value.trim();
  if (snapValue !== '') {
    seedInput.value = '';
    setDisabled(seedInput, true);
    setDisabled(snapInput, false);
    return;
  }
  if (seedValue !== '') {
    snapInput.value = '';
    setDisabled(snapInput, true);
    setDisabled(seedInput, false);
    return;
  }
  setDisabled(seedInput, false);
  setDisabled(snapInput, false);
}

async function loadMeta() {
  try {
    const res = await fetch('/dev/meta');
    if (!res.ok) throw new Error(await res.text());
    const games = await res.json();
    state.meta = { games };
    gameSel.innerHTML = '';
    games.forEach((g) => {
      const opt = document.createElement('option');
      opt.value = String(g.gid);
      opt.textContent = g.name + ' (' + g.width + 'w' + (g.resettle ? ', resettle' : '') + ')';
      gameSel.appendChild(opt);
    });
    summary.textContent = '';
    setInfo('', false);
  } catch (err) {
    summary.textContent = 'Failed to load meta: ' + err.message;
  }
}

function setInfo(text, isWarn) {
  infoEl.textContent = text;
  infoEl.classList.toggle('warn', !!isWarn);
}

function setLoading(isLoading) {
  btnDrop.disabled = isLoading;
  btnSim.disabled = isLoading;
  if (isLoading) setInfo('Running…', false);
}

function selectedWidth() {
  if (!state.meta) return 10;
  const g = state.meta.games.find((g) => String(g.gid) === gameSel.value);
  return g ? g.width : 10;
}

// rows are bottom-up bitmasks; render top row first
function renderBoard(rows, width) {
  if (!Array.isArray(rows) || rows.length === 0) {
    board.style.display = 'none';
    return;
  }
  const out = [];
  for (let i = rows.length - 1; i >= 0; i--) {
    let line = '';
    for (let c = 0; c < width; c++) {
      line += (rows[i] >> c) & 1 ? '█' : '·';
    }
    out.push(line);
  }
  board.textContent = out.join('\n');
  board.style.display = 'block';
}

function basePayload() {
  const payload = { gid: Number(gameSel.value) };
  const seed = seedInput.value.trim();
  const snap = snapInput.value.trim();
  if (snap) {
    payload.snap = snap;
  } else if (seed) {
    payload.seed = seed;
  }
  return payload;
}

async function post(path, payload) {
  const res = await fetch(path, {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(payload),
  });
  if (!res.ok) throw new Error(await res.text());
  return res.json();
}

async function runDrop() {
  setLoading(true);
  try {
    const payload = basePayload();
    payload.line = lineInput.value.trim();
    const data = await post('/dev/drop', payload);
    renderBoard(data.rows, selectedWidth());
    const summaryObj = { ...data };
    delete summaryObj.rows;
    summary.textContent = JSON.stringify(summaryObj, null, 2);
    setInfo('', false);
  } catch (err) {
    summary.textContent = 'Request failed: ' + err.message;
    setInfo('', false);
  } finally {
    setLoading(false);
  }
}

async function runSim() {
  setLoading(true);
  board.style.display = 'none';
  try {
    const payload = basePayload();
    payload.lines = Math.min(Number(linesInput.value) || 1, 3000000);
    payload.drops = Math.min(Number(dropsInput.value) || 1, 5000);
    const data = await post('/dev/sim', payload);
    summary.textContent = JSON.stringify(data.statistic || data, null, 2);
    setInfo('', false);
  } catch (err) {
    summary.textContent = 'Request failed: ' + err.message;
    setInfo('', false);
  } finally {
    setLoading(false);
  }
}

btnDrop.addEventListener('click', runDrop);
btnSim.addEventListener('click', runSim);
btnClear.addEventListener('click', () => {
  summary.textContent = '';
  board.style.display = 'none';
  setInfo('', false);
});
seedInput.addEventListener('input', syncInputLocks);
snapInput.addEventListener('input', syncInputLocks);

syncInputLocks();
loadMeta();
</script>
</body>
</html>`

// devPage 回傳內嵌 HTML（single page）。這裡不做 templating，降低 dev tool 維護成本。
func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

// favicon 提供 Dev Panel 的 favicon.svg。
func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

// devMeta 回傳 Catalog summary（JSON）。
//
// 前端依賴欄位：gid / name / width / max_height / resettle
func devMeta(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lab, ok := getStacklab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("stacklab is required"))
			return
		}
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

// devDrop 執行「可回放」的逐手落子。
//
// 流程（high level）：
//  1. decode devRequest（JSON body）
//  2. resolve game（gid/name）→ catalog.Summary
//  3. resolve seed（empty = auto）
//  4. 建立 DevSimulator → Drops() 或 RestoreDrops()
//
// Snap precedence：若 snap 非空，會走 RestoreDrops(snap, ...)（snap 是棋盤 rows frame）。
func devDrop(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getStacklab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("stacklab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		line := strings.TrimSpace(req.Line)
		if line == "" {
			httperr.Errs(w, errs.NewWarn("line is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewDevSimulator(sum.GID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report stacklab.DevDropReport
		if snap != "" {
			report, err = sim.RestoreDrops(snap, line)
		} else {
			report, err = sim.Drops(line)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// devSim 執行統計模擬（simulation）。
//
// 和 devDrop 的差異：
//   - devSim 不回逐局 results（降低 response size），僅回 DevSimReport（statistic）。
//   - 若提供 snap，會走 RestoreSim(snap, ...)（snap 是 core snapshot）。
func devSim(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getStacklab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("stacklab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		if req.Lines < 1 {
			httperr.Errs(w, errs.NewWarn("lines is required"))
			return
		}
		if req.Drops < 1 {
			httperr.Errs(w, errs.NewWarn("drops is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		sim, err := lab.NewDevSimulator(sum.GID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report stacklab.DevSimReport
		if snap != "" {
			report, err = sim.RestoreSim(snap, req.Lines, req.Drops)
		} else {
			report, err = sim.Sim(req.Lines, req.Drops)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// getStacklab 從 server config 取得已組裝的 Stacklab instance。
// Dev routes 不負責組裝（assembler），只負責使用（runtime entry）。
func getStacklab(cfg *svrcfg.SvrCfg) (*stacklab.Stacklab, bool) {
	if cfg == nil || cfg.Stacklab == nil {
		return nil, false
	}
	return cfg.Stacklab, true
}

// resolveSummary 解析使用者指定的遊戲：
//   - 若 gid > 0：以 gid 精準匹配（fast path）。
//   - 否則若 game(name) 非空：先做 case-insensitive name 匹配；也允許把 game 當作數字字串解析成 gid。
func resolveSummary(lab *stacklab.Stacklab, req *devRequest) (catalog.Summary, error) {
	sums, err := lab.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	if req.GID > 0 {
		gid := spec.GID(req.GID)
		for _, s := range sums {
			if s.GID == gid {
				return s, nil
			}
		}
		return catalog.Summary{}, errs.NewWarn("gid not found")
	}
	name := strings.TrimSpace(req.Game)
	if name != "" {
		for _, s := range sums {
			if strings.EqualFold(s.Name, name) {
				return s, nil
			}
		}
		if gid, err := strconv.ParseUint(name, 10, 64); err == nil {
			sg := spec.GID(gid)
			for _, s := range sums {
				if s.GID == sg {
					return s, nil
				}
			}
		}
		return catalog.Summary{}, errs.NewWarn("game not found")
	}
	return catalog.Summary{}, errs.NewWarn("game is required")
}

// resolveSeed 解析 seed（int64 string）。
//   - 空字串：自動生成 seed（crypto/rand），方便快速測試。
//   - 非空：必須為合法 int64。
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return randomSeed()
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}

// randomSeed 使用 crypto/rand 產生 [0, MaxInt64) 的種子。
// 目的：避免 math/rand 的 deterministic 來源造成 seed 品質偏差（dev tool 也要可依賴）。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

//go:embed favicon.svg
var faviconSVG string

// keep embed imported even if only used for directives
var _ embed.FS
