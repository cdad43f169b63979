package router

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securesvc-core/internal/core/events"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/metrics"
	"securesvc-core/internal/secure/service"
)

// recordingEngine 记录 StartSecureHandshake 调用
type recordingEngine struct {
	mu     sync.Mutex
	starts []service.Type
}

func (e *recordingEngine) StartSecureHandshake(svc service.Type) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts = append(e.starts, svc)
}

func (e *recordingEngine) Starts() []service.Type {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]service.Type, len(e.starts))
	copy(out, e.starts)
	return out
}

// fakeConnection 协议引擎为 nil 时表示尚未初始化
type fakeConnection struct {
	engine ProtocolEngine
}

func (c *fakeConnection) ProtocolEngine() (ProtocolEngine, bool) {
	if c.engine == nil {
		return nil, false
	}
	return c.engine, true
}

func newTestRouter(t *testing.T) (*Router, *logrustest.Hook, *metrics.MemoryMetrics) {
	t.Helper()
	l, hook := logrustest.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	m := metrics.NewMemoryMetrics()
	r := New(&Config{
		Logger:              corelog.NewLogrusLogger(l),
		Metrics:             m,
		PayloadPreviewBytes: 4,
	})
	return r, hook, m
}

func entriesAt(hook *logrustest.Hook, level logrus.Level) []logrus.Entry {
	var out []logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, *e)
		}
	}
	return out
}

func failureOutcomes() []service.ProtectResult {
	var out []service.ProtectResult
	for _, o := range service.ProtectResults() {
		if o != service.ProtectSuccess {
			out = append(out, o)
		}
	}
	return out
}

func allServices() []service.Type {
	return append(service.Types(), service.Type(0x42))
}

func TestOnProtectionResult_FailureNeverStartsHandshake(t *testing.T) {
	r, _, _ := newTestRouter(t)
	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})

	outcomes := append(failureOutcomes(), service.ProtectResult(99))
	for _, svc := range allServices() {
		for _, o := range outcomes {
			r.OnProtectionResult(o, svc)
		}
	}
	assert.Empty(t, engine.Starts())
}

func TestOnProtectionResult_SuccessStartsOnce(t *testing.T) {
	for _, svc := range allServices() {
		t.Run(svc.String(), func(t *testing.T) {
			r, _, m := newTestRouter(t)
			engine := &recordingEngine{}
			r.Bind(&fakeConnection{engine: engine})

			r.OnProtectionResult(service.ProtectSuccess, svc)

			assert.Equal(t, []service.Type{svc}, engine.Starts())
			v, _ := m.GetCounter(metrics.HandshakeStartsTotal, map[string]string{"service": svc.String()})
			assert.Equal(t, 1.0, v)
		})
	}
}

func TestOnProtectionResult_NoConnection(t *testing.T) {
	r, hook, m := newTestRouter(t)

	for _, svc := range allServices() {
		assert.NotPanics(t, func() {
			r.OnProtectionResult(service.ProtectSuccess, svc)
		})
	}

	warns := entriesAt(hook, logrus.WarnLevel)
	require.Len(t, warns, len(allServices()))
	assert.Contains(t, warns[0].Message, "not bound")

	v, _ := m.GetCounter(metrics.NotReadyTotal, map[string]string{
		"service": service.Video.String(),
		"reason":  events.NotReadyNoConnection,
	})
	assert.Equal(t, 1.0, v)
}

func TestOnProtectionResult_NoProtocolEngine(t *testing.T) {
	r, hook, m := newTestRouter(t)
	r.Bind(&fakeConnection{})

	assert.NotPanics(t, func() {
		r.OnProtectionResult(service.ProtectSuccess, service.RPC)
	})

	// 报告 ok 但返回 nil 引擎，同样视为未就绪
	r.Bind(ConnectionFunc(func() (ProtocolEngine, bool) { return nil, true }))
	assert.NotPanics(t, func() {
		r.OnProtectionResult(service.ProtectSuccess, service.RPC)
	})

	warns := entriesAt(hook, logrus.WarnLevel)
	require.Len(t, warns, 2)
	assert.Contains(t, warns[0].Message, "Protocol engine")

	v, _ := m.GetCounter(metrics.NotReadyTotal, map[string]string{
		"service": service.RPC.String(),
		"reason":  events.NotReadyNoProtocolEngine,
	})
	assert.Equal(t, 2.0, v)
}

func TestOnProtectionResult_EngineBecomesAvailable(t *testing.T) {
	r, _, _ := newTestRouter(t)
	conn := &fakeConnection{}
	r.Bind(conn)

	r.OnProtectionResult(service.ProtectSuccess, service.Audio)

	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})
	r.OnProtectionResult(service.ProtectSuccess, service.Audio)

	// 未就绪时的结果不会被补发
	assert.Equal(t, []service.Type{service.Audio}, engine.Starts())
}

func TestOnProtectionResult_KnownOutcomesAreHandled(t *testing.T) {
	r, hook, _ := newTestRouter(t)
	r.Bind(&fakeConnection{engine: &recordingEngine{}})

	for _, o := range service.ProtectResults() {
		r.OnProtectionResult(o, service.Hybrid)
	}
	assert.Empty(t, entriesAt(hook, logrus.ErrorLevel), "every known outcome must have an explicit branch")
}

func TestOnProtectionResult_UnrecognizedOutcomeIsLoud(t *testing.T) {
	r, hook, m := newTestRouter(t)
	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})

	r.OnProtectionResult(service.ProtectResult(42), service.Video)

	errs := entriesAt(hook, logrus.ErrorLevel)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Unrecognized protect result 42")
	assert.Empty(t, engine.Starts())

	v, _ := m.GetCounter(metrics.UnknownOutcomesTotal, map[string]string{"service": "video"})
	assert.Equal(t, 1.0, v)
}

func TestOnHandshakeData_NeverStartsHandshake(t *testing.T) {
	r, hook, m := newTestRouter(t)
	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})

	payloads := []service.HandshakePayload{nil, {}, {0x16, 0x03, 0x03, 0x00, 0x2a, 0x01}}
	for _, svc := range allServices() {
		for _, p := range payloads {
			r.OnHandshakeData(p, svc)
		}
	}
	assert.Empty(t, engine.Starts())

	// 未绑定连接时同样只记录
	r.Unbind()
	assert.NotPanics(t, func() {
		r.OnHandshakeData(service.HandshakePayload{1, 2, 3}, service.RPC)
	})

	var previewed bool
	for _, e := range entriesAt(hook, logrus.DebugLevel) {
		if e.Data["preview"] == "16030300..." {
			previewed = true
		}
	}
	assert.True(t, previewed)

	v, _ := m.GetCounter(metrics.HandshakeBytesTotal, map[string]string{"service": "rpc"})
	assert.Equal(t, 9.0, v)
	assert.Empty(t, entriesAt(hook, logrus.WarnLevel))
}

func TestRouter_Scenario(t *testing.T) {
	r, _, _ := newTestRouter(t)
	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})

	r.OnProtectionResult(service.ProtectSuccess, service.Video)
	assert.Equal(t, []service.Type{service.Video}, engine.Starts())

	r.OnProtectionResult(service.ProtectRejected, service.Audio)
	assert.Equal(t, []service.Type{service.Video}, engine.Starts())
}

func TestRouter_BindUnbind(t *testing.T) {
	r, _, m := newTestRouter(t)

	_, ok := r.Connection()
	assert.False(t, ok)

	conn := &fakeConnection{}
	r.Bind(conn)
	got, ok := r.Connection()
	require.True(t, ok)
	assert.Same(t, conn, got)
	g, _ := m.GetGauge(metrics.ConnectionBoundGauge, nil)
	assert.Equal(t, 1.0, g)

	r.Bind(nil)
	_, ok = r.Connection()
	assert.False(t, ok)
	g, _ = m.GetGauge(metrics.ConnectionBoundGauge, nil)
	assert.Equal(t, 0.0, g)

	r.Unbind()
	_, ok = r.Connection()
	assert.False(t, ok)
}

func TestRouter_BindTypedNilConnection(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
	}{
		{"nil pointer", (*fakeConnection)(nil)},
		{"nil func", ConnectionFunc(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, hook, m := newTestRouter(t)
			r.Bind(&fakeConnection{engine: &recordingEngine{}})
			r.Bind(tt.conn)

			_, ok := r.Connection()
			assert.False(t, ok)
			g, _ := m.GetGauge(metrics.ConnectionBoundGauge, nil)
			assert.Equal(t, 0.0, g)

			assert.NotPanics(t, func() {
				r.OnProtectionResult(service.ProtectSuccess, service.Video)
			})
			warns := entriesAt(hook, logrus.WarnLevel)
			require.Len(t, warns, 1)
			assert.Contains(t, warns[0].Message, "Connection is not bound")
		})
	}
}

func TestOnProtectionResult_TypedNilEngine(t *testing.T) {
	r, _, m := newTestRouter(t)
	r.Bind(ConnectionFunc(func() (ProtocolEngine, bool) { return (*recordingEngine)(nil), true }))

	assert.NotPanics(t, func() {
		r.OnProtectionResult(service.ProtectSuccess, service.Audio)
	})

	v, _ := m.GetCounter(metrics.NotReadyTotal, map[string]string{
		"service": service.Audio.String(),
		"reason":  events.NotReadyNoProtocolEngine,
	})
	assert.Equal(t, 1.0, v)
}

func TestRouter_BoundGaugeFollowsBinding(t *testing.T) {
	r, _, m := newTestRouter(t)
	conn := &fakeConnection{engine: &recordingEngine{}}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if (i+w)%2 == 0 {
					r.Bind(conn)
				} else {
					r.Unbind()
				}
			}
		}(w)
	}
	wg.Wait()

	_, bound := r.Connection()
	g, _ := m.GetGauge(metrics.ConnectionBoundGauge, nil)
	if bound {
		assert.Equal(t, 1.0, g)
	} else {
		assert.Equal(t, 0.0, g)
	}

	r.Unbind()
	g, _ = m.GetGauge(metrics.ConnectionBoundGauge, nil)
	assert.Equal(t, 0.0, g)
}

func TestRouter_PublishesEvents(t *testing.T) {
	bus := events.NewEventBus(corelog.NewNopLogger())
	defer bus.Close()

	var got []events.Event
	for _, typ := range []string{events.TypeProtectionResult, events.TypeHandshakeData} {
		_, err := bus.Subscribe(typ, func(e events.Event) error {
			got = append(got, e)
			return nil
		})
		require.NoError(t, err)
	}

	r := New(&Config{Logger: corelog.NewTestLogger(t), Events: bus})

	r.OnProtectionResult(service.ProtectSuccess, service.RPC)
	r.Bind(&fakeConnection{})
	r.OnProtectionResult(service.ProtectSuccess, service.RPC)
	r.Bind(&fakeConnection{engine: &recordingEngine{}})
	r.OnProtectionResult(service.ProtectSuccess, service.RPC)
	r.OnProtectionResult(service.ProtectAlreadyProtected, service.Audio)
	r.OnHandshakeData(service.HandshakePayload{9}, service.RPC)

	require.Len(t, got, 5)
	assert.Equal(t, events.NotReadyNoConnection, got[0].(*events.ProtectionResultEvent).NotReady)
	assert.Equal(t, events.NotReadyNoProtocolEngine, got[1].(*events.ProtectionResultEvent).NotReady)

	ok := got[2].(*events.ProtectionResultEvent)
	assert.True(t, ok.Dispatched)
	assert.Empty(t, ok.NotReady)

	failed := got[3].(*events.ProtectionResultEvent)
	assert.False(t, failed.Dispatched)
	assert.Equal(t, service.ProtectAlreadyProtected, failed.Outcome)

	data := got[4].(*events.HandshakeDataEvent)
	assert.Equal(t, service.RPC, data.Service)
	assert.Equal(t, service.HandshakePayload{9}, data.Payload)
}

func TestRouter_ClosedBusDoesNotAffectDispatch(t *testing.T) {
	bus := events.NewEventBus(corelog.NewNopLogger())
	require.NoError(t, bus.Close())

	engine := &recordingEngine{}
	r := New(&Config{Logger: corelog.NewTestLogger(t), Events: bus})
	r.Bind(&fakeConnection{engine: engine})

	r.OnProtectionResult(service.ProtectSuccess, service.Video)
	r.OnHandshakeData(service.HandshakePayload{1}, service.Video)
	assert.Equal(t, []service.Type{service.Video}, engine.Starts())
}

func TestRouter_NilConfig(t *testing.T) {
	r := New(nil)
	engine := &recordingEngine{}
	r.Bind(&fakeConnection{engine: engine})
	r.OnProtectionResult(service.ProtectSuccess, service.Control)
	r.OnHandshakeData(nil, service.Control)
	assert.Equal(t, []service.Type{service.Control}, engine.Starts())
}

func TestRouter_ConcurrentDistinctServices(t *testing.T) {
	r, _, m := newTestRouter(t)

	var mu sync.Mutex
	perService := make(map[service.Type]int)
	r.Bind(&fakeConnection{engine: EngineFunc(func(svc service.Type) {
		mu.Lock()
		perService[svc]++
		mu.Unlock()
	})})

	const rounds = 200
	var wg sync.WaitGroup
	for _, svc := range service.Types() {
		wg.Add(1)
		go func(svc service.Type) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r.OnProtectionResult(service.ProtectSuccess, svc)
				r.OnProtectionResult(service.ProtectRejected, svc)
				r.OnHandshakeData(service.HandshakePayload{byte(i)}, svc)
			}
		}(svc)
	}
	wg.Wait()

	for _, svc := range service.Types() {
		assert.Equal(t, rounds, perService[svc], svc.String())
		v, _ := m.GetCounter(metrics.HandshakeStartsTotal, map[string]string{"service": svc.String()})
		assert.Equal(t, float64(rounds), v, svc.String())
	}
}

func TestRouter_ConcurrentRebind(t *testing.T) {
	r, _, _ := newTestRouter(t)
	engine := &recordingEngine{}
	ready := &fakeConnection{engine: engine}
	notReady := &fakeConnection{}

	const calls = 500
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			switch i % 3 {
			case 0:
				r.Bind(ready)
			case 1:
				r.Bind(notReady)
			default:
				r.Unbind()
			}
		}
	}()

	for i := 0; i < calls; i++ {
		assert.NotPanics(t, func() {
			r.OnProtectionResult(service.ProtectSuccess, service.Video)
		})
	}
	close(done)
	wg.Wait()

	starts := engine.Starts()
	assert.LessOrEqual(t, len(starts), calls)
	for _, svc := range starts {
		assert.Equal(t, service.Video, svc)
	}
}
