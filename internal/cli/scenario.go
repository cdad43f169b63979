package cli

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	coreerrors "securesvc-core/internal/core/errors"
	"securesvc-core/internal/secure/service"

	"gopkg.in/yaml.v3"
)

// StepAction 场景步骤类型
type StepAction string

const (
	ActionBind         StepAction = "bind"           // 绑定带协议引擎的新连接
	ActionBindNoEngine StepAction = "bind_no_engine" // 绑定协议引擎尚未就绪的新连接
	ActionUnbind       StepAction = "unbind"
	ActionProtect      StepAction = "protect"
	ActionData         StepAction = "data"
)

// Scenario 回放场景
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step 场景中的一个步骤
type Step struct {
	Action  StepAction `yaml:"action"`
	Service string     `yaml:"service,omitempty"`
	Outcome string     `yaml:"outcome,omitempty"` // 结果名，或数字编号（用于模拟未知结果）
	Hex     string     `yaml:"hex,omitempty"`

	svc     service.Type
	outcome service.ProtectResult
	payload service.HandshakePayload
}

// LoadScenario 从 YAML 文件加载并校验场景
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.Wrapf(err, coreerrors.CodeNotFound, "failed to read scenario %s", path)
	}
	return ParseScenario(data)
}

// ParseScenario 解析并校验场景
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidData, "failed to parse scenario")
	}
	if len(sc.Steps) == 0 {
		return nil, coreerrors.New(coreerrors.CodeValidationError, "scenario has no steps")
	}
	for i := range sc.Steps {
		if err := sc.Steps[i].resolve(); err != nil {
			return nil, coreerrors.Wrapf(err, coreerrors.CodeValidationError, "step %d (%s)", i+1, sc.Steps[i].Action).
				WithDetail("step", strconv.Itoa(i+1))
		}
	}
	return &sc, nil
}

func (s *Step) resolve() error {
	s.Action = StepAction(strings.ToLower(strings.TrimSpace(string(s.Action))))

	switch s.Action {
	case ActionBind, ActionBindNoEngine, ActionUnbind:
		return nil
	case ActionProtect:
		svc, err := service.ParseType(s.Service)
		if err != nil {
			return err
		}
		outcome, err := parseOutcome(s.Outcome)
		if err != nil {
			return err
		}
		s.svc, s.outcome = svc, outcome
		return nil
	case ActionData:
		svc, err := service.ParseType(s.Service)
		if err != nil {
			return err
		}
		raw, err := hex.DecodeString(strings.ReplaceAll(s.Hex, " ", ""))
		if err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "invalid hex payload")
		}
		s.svc, s.payload = svc, raw
		return nil
	case "":
		return coreerrors.New(coreerrors.CodeMissingParam, "action is required")
	default:
		return coreerrors.Newf(coreerrors.CodeInvalidParam, "unknown action %q", s.Action)
	}
}

// parseOutcome 结果名或整数编号；整数不限于已知集合
func parseOutcome(v string) (service.ProtectResult, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return service.ProtectResult(n), nil
	}
	return service.ParseProtectResult(v)
}

// ServiceType 解析后的服务类型
func (s *Step) ServiceType() service.Type { return s.svc }

// ProtectOutcome 解析后的保护结果
func (s *Step) ProtectOutcome() service.ProtectResult { return s.outcome }

// Payload 解析后的握手数据
func (s *Step) Payload() service.HandshakePayload { return s.payload }
