// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stacklab 提供 Stacklab 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Stacklab 視為一個「可被後端/模擬器使用的 runtime」，它負責把下列兩個必需的地基組裝在一起，並提供建立 Machine 的入口：
//  1. Catalog：遊戲目錄（Single Source of Truth / SSOT），定義有哪些棋盤配置、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證隨機模擬可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Stacklab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Machine 是對外提供 Run 的最小單位：一台機台 = 一面棋盤 + 一組 RNG + 一個落子生成器。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Stacklab 建立 Machine，Machine 對外提供 Run。
//   - 模擬器（sim）：由 Stacklab 建立多台 Machine 進行大量模擬。
//
// 注意：此套引擎以無旋轉落塊棋盤為中心（Drop -> Height），不是泛用遊戲框架。
package stacklab

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/stacklab/catalog"
	"github.com/zintix-labs/stacklab/corefmt"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
//
// Stacklab 不解析「路徑」：它只依賴 fs.FS + ConfigName（檔名）來取得設定內容。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Stacklab 是「組裝器（assembler）」與「運行入口（runtime entry）」：
//
// 它把兩個必需的地基組合起來：
//  1. Catalog：遊戲目錄（Single Source of Truth / SSOT），定義有哪些棋盤配置、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證隨機模擬可重現（reproducible）與可審計（auditable）。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據遊戲 ID 產生 Machine，並在 Machine 上執行 Run。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Stacklab instance」內（不同 Stacklab 之間不做全域保證）。
//   - 你要跑哪一批棋盤配置、哪一套設定檔，必須由 New() 的參數明確決定。
//   - runtime 一旦開始（例如已建立 Machine 並對外服務），不建議再變更 Catalog（避免非預期行為）。
type Stacklab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary
}

// New 建立一個 Stacklab instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（通常同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 PRNGFactory，確保由這個 Stacklab 建出來的 Machine 在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的隨機模擬。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 GameSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Stacklab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Stacklab{
		cat: cata,
		cf:  cf,
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Stacklab instance。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Stacklab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Stacklab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.GameSetting，並用設定檔內宣告的 GameID/GameName 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：fs.WalkDir 依檔名排序走訪，確保行為 determinism（方便重現與除錯）。
func (p *Stacklab) RegisterAll() error {
	cfgs := p.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.GID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				gs   *spec.GameSetting
				gerr error
			)
			switch ext {
			case ".yaml", ".yml":
				gs, gerr = spec.GetGameSettingByYAML(raw)
			case ".json":
				gs, gerr = spec.GetGameSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if gerr != nil {
				return errs.NewFatal(fmt.Sprintf("parse gamesetting failed: %s", base))
			}

			name := strings.TrimSpace(gs.GameName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("game name required: %s", base))
			}

			id := gs.GameID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := p.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("game id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := p.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("game name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				GID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return p.cat.Register(entries...)
}

func (p *Stacklab) Freeze() {
	p.cat.Freeze()
}

func (p *Stacklab) EntryById(id spec.GID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Stacklab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Stacklab) IDs() []spec.GID {
	return p.cat.IDs()
}

func (p *Stacklab) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Stacklab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse game setting failed")
		}
		s := catalog.Summary{
			GID:       id,
			Name:      gs.GameName,
			Width:     gs.Board.Width,
			MaxHeight: gs.Board.MaxHeight,
			Resettle:  gs.Resettle,
		}
		cs = append(cs, s)
	}
	p.sum = cs
	return p.sum, nil
}

// GameSettingById 取出該 ID 對應、已初始化完成的遊戲設定。
func (p *Stacklab) GameSettingById(id spec.GID) (*spec.GameSetting, error) {
	return p.cat.GameSettingById(id)
}

// NewMachine 依據 Catalog 內的遊戲 ID 建立一台 Machine。
//
// 行為：
//  1. 由 Catalog 取得對應的 GameSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 以 PRNGFactory 產生 RNG 核心（seed 由 crypto/rand 產生）。
//  3. 依設定建出棋盤與落子生成器。
//
// isSim 用於區分「模擬/分析」與「對外服務」的執行模式
// （模擬模式會略過結果棋盤內容的填寫以增加性能）。
//
// 注意：seed 會被記錄在 Machine 內（initseed），用於追溯/重現；真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (p *Stacklab) NewMachine(id spec.GID, isSim bool) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachine(gs, p.cf, isSim)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的隨機序列（取決於 Core 實作）。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore（以 []byte 交換狀態）。
func (p *Stacklab) NewMachineWithSeed(id spec.GID, seed int64, isSim bool) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(gs, p.cf, seed, isSim)
}

func (p *Stacklab) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.cf, seed, true)
}

func (p *Stacklab) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.cf, seed, true)
}

func (p *Stacklab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := p.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

func (p *Stacklab) NewSimulator(id spec.GID) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(gs, p.cf)
}

func (p *Stacklab) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, p.cf, seed)
}

func (p *Stacklab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed)
}

func (p *Stacklab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed)
}

func (p *Stacklab) BuildRuntime(poolSize int) (*StackRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}

	rt := &StackRuntime{
		lab:      p,
		pools:    make(map[spec.GID]*MachinePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		mp, err := newMachinePool(rt.poolSize, gs, p.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = mp
	}
	return rt, nil
}

// NewDevSimulator
//
// 注意只能由Stacklab起
// 只提供給Dev模式使用的模擬器，重點是保持單機台模式所以保持可重現性
func (p *Stacklab) NewDevSimulator(gid spec.GID, seed int64) (*DevSimulator, error) {
	sim, err := p.NewSimulatorWithSeed(gid, seed)
	if err != nil {
		return nil, err
	}
	m, err := p.NewMachineWithSeed(gid, seed, false)
	if err != nil {
		return nil, err
	}
	simBe, err := sim.mBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	mBe, err := m.SnapshotCore()
	if err != nil {
		return nil, err
	}
	if string(mBe) != string(simBe) {
		return nil, errs.NewFatal("seeds are not equal")
	}
	dev := &DevSimulator{
		sim:      sim,
		m:        m,
		before:   mBe,
		before64: corefmt.EncodeBase64URL(mBe),
	}
	return dev, nil
}
