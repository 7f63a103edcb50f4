package main

import (
	"bufio"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/stacklab"
	"github.com/zintix-labs/stacklab/demo/demo_configs"
	"github.com/zintix-labs/stacklab/recorder"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/sdk/parse"
	"github.com/zintix-labs/stacklab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.GID
	worker    int
	lines     int
	drops     int
	est       bool
	stat      bool
	seed      int64
	input     string
	output    string
	pprofmode string
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string { return fmt.Sprint(uint(*f.p)) }
func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.Var(gidFlag{&cfg.id}, "game", "target game id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.lines, "lines", 1000000, "lines per worker")
	flag.IntVar(&cfg.drops, "drops", 100, "drops per line")
	flag.BoolVar(&cfg.est, "est", false, "print quantile estimation report")
	flag.BoolVar(&cfg.stat, "stat", false, "with -i: print height report after the batch")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.input, "i", "", "drop sequences input file, '-' for stdin (one line per game)")
	flag.StringVar(&cfg.output, "o", "", "heights output file (default stdout)")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	lab, err := stacklab.NewAuto(
		core.Default(),
		stacklab.Configs(demo_configs.FS),
	)
	if err != nil {
		log.Fatal(err)
	}

	// 給定輸入檔（或 stdin）時走批次驅動：一行一局，輸出一行疊高
	if cfg.input != "" {
		executeFileDriver(lab)
		return
	}

	cfg.valid() // 基本檢查
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.est { // 深入評估（分位數 + CP 信賴區間）
		p.Printf("%s[WORKERS:%d] [GAME:%s] [LINES:%d DROPS:%d] [EST]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.lines, cfg.drops, reset)
		st, est, used, err := s.SimRandEst(cfg.lines, cfg.drops, cfg.worker, true)
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
		est.Out()
		return
	}

	if cfg.worker == 1 { // 單線程
		p.Printf("%s[GAME:%s] [LINES:%d DROPS:%d]%s\n", green, cfg.name, cfg.lines, cfg.drops, reset)
		st, used, err := s.SimRand(cfg.lines, cfg.drops, true)
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
	} else {
		p.Printf("%s[WORKERS:%d] [GAME:%s] [LINES:%d DROPS:%d]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.lines, cfg.drops, reset)
		st, used, err := s.SimRandMP(cfg.lines, cfg.drops, cfg.worker, true) // 併發
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// 局數檢查
	if cfg.lines < 1 {
		log.Fatal("value err : lines must > 0")
	}

	// 手數檢查
	if cfg.drops < 1 {
		log.Fatal("value err : drops must > 0")
	}
	// 單局手數過多沒有意義：長期行為用多局模擬即可
	if cfg.drops > 5000 {
		p.Printf("too much drops per line: %d resized to 5k drops\n", cfg.drops)
		cfg.drops = 5000
	}

	// est 模式樣本量限制（CP 區間在超大樣本下只是變慢，不會更準）
	if cfg.est && cfg.lines > 100000 {
		p.Printf("too much lines for estimation: %d resized to 100k lines per worker\n", cfg.lines)
		cfg.lines = 100000
	}
}

// executeFileDriver 批次驅動：逐行讀入落子序列（例如 "Q0,I2,I6"），
// 每行獨立一局（空盤起跑），輸出該局結算疊高（一行一個數字）。
// 任何一行解析或落子失敗都會帶行號中止。
func executeFileDriver(lab *stacklab.Stacklab) {
	gs, err := lab.GameSettingById(cfg.id)
	if err != nil {
		log.Fatal(err)
	}
	// 批次驅動不走隨機路徑，seed 只用於出生紀錄
	m, err := lab.NewMachineWithSeed(cfg.id, cfg.seed, true)
	if err != nil {
		log.Fatal(err)
	}

	in := os.Stdin
	if cfg.input != "-" {
		f, err := os.Open(cfg.input)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}
	out := os.Stdout
	if cfg.output != "" {
		f, err := os.Create(cfg.output)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}

	var rec *recorder.RunRecorder
	if cfg.stat {
		rec, err = recorder.NewRunRecorder(gs.GameName, gs.GameID, gs.Board.MaxHeight)
		if err != nil {
			log.Fatal(err)
		}
	}

	start := time.Now()
	if err := runBatchLines(m, gs.Board.Width, in, out, rec); err != nil {
		log.Fatal(err)
	}

	if rec != nil {
		st := rec.Done()
		st.StdOut(time.Since(start))
	}
}

// runBatchLines 逐行執行落子序列並輸出每局疊高。
//
// 一行輸入對應一行輸出：空白行也是一局（零手落子，空盤結算疊高 0），
// 不可以跳過，否則輸出會跟輸入行錯位。
func runBatchLines(m *stacklab.Machine, width int, in io.Reader, out io.Writer, rec *recorder.RunRecorder) error {
	w := bufio.NewWriter(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var drops []buf.Drop
	var err error
	req := new(buf.RunRequest)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		drops, err = parse.LineInto(line, width, drops)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		req.Drops = drops
		rr, err := m.RunInternal(req)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		fmt.Fprintln(w, rr.Height)
		if rec != nil {
			rec.Record(rr)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return w.Flush()
}
