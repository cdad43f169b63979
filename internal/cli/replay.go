package cli

import (
	"context"
	"strconv"
	"sync"

	coreerrors "securesvc-core/internal/core/errors"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/safe"
	"securesvc-core/internal/secure/diag"
	"securesvc-core/internal/secure/router"
	"securesvc-core/internal/secure/service"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// HandshakeStart 回放中协议引擎收到的一次握手启动
type HandshakeStart struct {
	ConnectionID string
	Service      service.Type
}

// Report 回放结果
type Report struct {
	Scenario    string
	Steps       int
	Connections []string
	Starts      []HandshakeStart
	Records     []diag.Record // 未启用诊断时为空
}

// Replayer 驱动路由回放场景，连接与协议引擎均为进程内记录实现
type Replayer struct {
	router   *router.Router
	recorder *diag.Recorder
	logger   corelog.Logger

	mu          sync.Mutex
	starts      []HandshakeStart
	connections []string
}

// NewReplayer 创建回放器，recorder 可为 nil
func NewReplayer(r *router.Router, recorder *diag.Recorder, logger corelog.Logger) *Replayer {
	if logger == nil {
		logger = corelog.Default()
	}
	return &Replayer{
		router:   r,
		recorder: recorder,
		logger:   logger.WithField("component", "replay"),
	}
}

// Run 执行场景
//
// concurrent 为 true 时，两个绑定步骤之间连续的 protect/data 步骤并发投递；
// bind、bind_no_engine、unbind 始终作为屏障按顺序执行
func (p *Replayer) Run(ctx context.Context, sc *Scenario, concurrent bool) (*Report, error) {
	if sc == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "scenario is nil")
	}
	if p.router == nil {
		return nil, coreerrors.ErrNotConfigured
	}

	var batch []*Step
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch = batch[:0] }()
		if !concurrent {
			for _, s := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				p.deliver(s)
			}
			return nil
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range batch {
			s := s
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return safe.Call("replay:"+string(s.Action), func() error {
					p.deliver(s)
					return nil
				})
			})
		}
		return g.Wait()
	}

	for i := range sc.Steps {
		s := &sc.Steps[i]
		switch s.Action {
		case ActionProtect, ActionData:
			batch = append(batch, s)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.apply(s, i+1)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	report := &Report{
		Scenario: sc.Name,
		Steps:    len(sc.Steps),
	}
	p.mu.Lock()
	report.Connections = append(report.Connections, p.connections...)
	report.Starts = append(report.Starts, p.starts...)
	p.mu.Unlock()
	if p.recorder != nil {
		report.Records = p.recorder.Snapshot()
	}
	return report, nil
}

func (p *Replayer) apply(s *Step, n int) {
	switch s.Action {
	case ActionBind, ActionBindNoEngine:
		conn := &replayConnection{id: uuid.NewString()}
		if s.Action == ActionBind {
			conn.engine = &recordingEngine{connID: conn.id, replayer: p}
		}
		p.mu.Lock()
		p.connections = append(p.connections, conn.id)
		p.mu.Unlock()
		p.router.Bind(conn)
		p.logger.WithFields(map[string]interface{}{
			"step":          strconv.Itoa(n),
			"connection_id": conn.id,
			"engine":        conn.engine != nil,
		}).Debug("Replay connection bound")
	case ActionUnbind:
		p.router.Unbind()
	}
}

func (p *Replayer) deliver(s *Step) {
	switch s.Action {
	case ActionProtect:
		p.router.OnProtectionResult(s.ProtectOutcome(), s.ServiceType())
	case ActionData:
		p.router.OnHandshakeData(s.Payload(), s.ServiceType())
	}
}

func (p *Replayer) recordStart(connID string, svc service.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = append(p.starts, HandshakeStart{ConnectionID: connID, Service: svc})
}

type replayConnection struct {
	id     string
	engine router.ProtocolEngine
}

func (c *replayConnection) ProtocolEngine() (router.ProtocolEngine, bool) {
	return c.engine, c.engine != nil
}

type recordingEngine struct {
	connID   string
	replayer *Replayer
}

func (e *recordingEngine) StartSecureHandshake(svc service.Type) {
	e.replayer.recordStart(e.connID, svc)
}

// PrintReport 输出回放结果
func PrintReport(o *Output, r *Report) {
	o.Section("Replay: " + r.Scenario)
	o.KeyValue("Steps", strconv.Itoa(r.Steps))
	o.KeyValue("Connections", strconv.Itoa(len(r.Connections)))
	o.KeyValue("Handshakes", strconv.Itoa(len(r.Starts)))

	if len(r.Starts) == 0 {
		o.Warning("No secure handshake was started")
	} else {
		o.Section("Handshake starts")
		for _, s := range r.Starts {
			o.Success("%s on connection %s", s.Service, shortID(s.ConnectionID))
		}
	}

	if len(r.Records) == 0 {
		return
	}
	o.Section("Services")
	table := NewTable("SERVICE", "STATE", "LAST RESULT", "RESULTS", "LEGS", "BYTES")
	for _, rec := range r.Records {
		last := "-"
		if rec.Results > 0 {
			last = rec.LastOutcome.String()
		}
		if rec.NotReadyReason != "" {
			last += " (" + rec.NotReadyReason + ")"
		}
		table.AddRow(
			rec.Service.String(),
			string(rec.State),
			last,
			strconv.Itoa(rec.Results),
			strconv.Itoa(rec.HandshakeLegs),
			strconv.FormatInt(rec.HandshakeBytes, 10),
		)
	}
	table.Render(o)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
