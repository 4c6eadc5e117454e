package flow

import (
	"fmt"
	"sync"
	"time"

	"github.com/chainctl/actioneer/fee"
	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/session"
	"github.com/chainctl/actioneer/util"
	"go.uber.org/zap"
)

// Sender executes the final built request and returns the parsed response
// with its HTTP status.
type Sender func(call *model.RemoteCall) (any, int, error)

const payloadDebounce = 300 * time.Millisecond

// Machine drives one workflow run of a single action through its stages:
// form, confirm, executing, result, with a step index nested inside form for
// wizard actions. Stage transitions are strictly sequential within a run.
type Machine struct {
	Id      string
	action  *model.Action
	network *model.Network
	session *session.Store
	send    Sender

	// optional collaborators
	addressValidator func(string) error
	onPayload        func(*model.RemoteCall)
	debouncer        *util.Debouncer

	mu       sync.Mutex
	stage    model.RunStage
	step     int
	account  string
	values   map[string]any
	errors   map[string]string
	dsValues map[string]any
	fees     *fee.Resolution
	result   *model.ExecutionResult
	preview  *model.RemoteCall
	pending  bool // execution suspended awaiting unlock
}

func NewMachine(id string, action *model.Action, network *model.Network, store *session.Store, send Sender) *Machine {
	return &Machine{
		Id:        id,
		action:    action,
		network:   network,
		session:   store,
		send:      send,
		stage:     model.STAGE_FORM,
		values:    make(map[string]any),
		errors:    make(map[string]string),
		dsValues:  make(map[string]any),
		debouncer: util.NewDebouncer(payloadDebounce),
	}
}

// SetAddressValidator installs the pluggable address-format validator.
func (m *Machine) SetAddressValidator(fn func(string) error) {
	m.addressValidator = fn
}

// OnPayload registers a debounced observer of the outgoing payload preview,
// recomputed when form values settle.
func (m *Machine) OnPayload(fn func(*model.RemoteCall)) {
	m.onPayload = fn
}

func (m *Machine) SetAccount(account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = account
}

// SetFees records the result of the fee waterfall for template resolution.
func (m *Machine) SetFees(fees *fee.Resolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fees = fees
}

// SetDsValue records a fetched data-source value under its key for template
// resolution and field option sources.
func (m *Machine) SetDsValue(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dsValues[key] = value
}

// SetValue records a form value and clears the field's validation error.
// Only meaningful while the run is at the form stage.
func (m *Machine) SetValue(name string, value any) error {
	m.mu.Lock()
	if m.stage != model.STAGE_FORM {
		m.mu.Unlock()
		return fmt.Errorf("run %s is not collecting input", m.Id)
	}
	m.values[name] = value
	delete(m.errors, name)
	m.mu.Unlock()

	m.debouncer.Trigger(m.rebuildPreview)
	return nil
}

// rebuildPreview recomputes the outgoing payload after form input settles.
// Runs once per burst of SetValue calls.
func (m *Machine) rebuildPreview() {
	call, err := m.BuildPayload()
	if err != nil {
		return
	}
	m.mu.Lock()
	m.preview = call
	m.mu.Unlock()
	if m.onPayload != nil {
		m.onPayload(call)
	}
}

// PayloadPreview returns the last debounced payload recompute, nil before the
// first form value settles.
func (m *Machine) PayloadPreview() *model.RemoteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview
}

// CurrentFields returns the value-bearing fields the run is collecting now:
// the active wizard step's, or the whole form.
func (m *Machine) CurrentFields() []model.Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentFieldsLocked()
}

// Continue advances the run. At the form stage it validates the current
// fields and either advances the wizard step, moves to confirmation, or, when
// the action declares no summary, proceeds straight to execution. At the
// confirmation stage it proceeds to execution. Execution is gated on the
// session unlock when the action requires it.
func (m *Machine) Continue() error {
	m.mu.Lock()
	switch m.stage {
	case model.STAGE_FORM:
		errs := m.validate(m.currentFieldsLocked())
		if len(errs) > 0 {
			m.errors = errs
			m.mu.Unlock()
			return nil
		}
		m.errors = map[string]string{}
		if m.action.Flow == model.FLOW_WIZARD && m.step < len(m.action.Steps)-1 {
			m.step++
			m.mu.Unlock()
			return nil
		}
		if m.action.Summary != "" {
			m.stage = model.STAGE_CONFIRM
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()
		return m.execute()
	case model.STAGE_CONFIRM:
		errs := m.validate(allValueFields(m.action))
		if len(errs) > 0 {
			m.errors = errs
			m.stage = model.STAGE_FORM
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()
		return m.execute()
	}
	m.mu.Unlock()
	return fmt.Errorf("run %s cannot continue from stage %s", m.Id, m.stage)
}

// Back returns from confirmation to the form with state preserved.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != model.STAGE_CONFIRM {
		return fmt.Errorf("run %s cannot go back from stage %s", m.Id, m.stage)
	}
	m.stage = model.STAGE_FORM
	return nil
}

// Done leaves the result stage, resetting stage and step index.
func (m *Machine) Done() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != model.STAGE_RESULT {
		return fmt.Errorf("run %s is not at a result", m.Id)
	}
	m.stage = model.STAGE_FORM
	m.step = 0
	m.result = nil
	return nil
}

// execute fires the final request, or suspends when the action requires an
// unlocked session and the session is locked. The suspended execution resumes
// through ResumeAfterUnlock exactly once.
func (m *Machine) execute() error {
	// the lock spans the unlock check and the pending flag so an unlock
	// landing in between still finds the suspension
	m.mu.Lock()
	if m.requiresAuth() && !m.session.IsUnlocked() {
		m.pending = true
		m.mu.Unlock()
		logger.Info("execution suspended awaiting unlock", zap.String("run", m.Id), zap.String("action", m.action.Id))
		return nil
	}
	m.mu.Unlock()
	return m.doExecute()
}

// ResumeAfterUnlock fires a suspended execution. A no-op unless an execution
// is pending; the pending flag clears before executing so the resume happens
// at most once.
func (m *Machine) ResumeAfterUnlock() error {
	m.mu.Lock()
	if !m.pending {
		m.mu.Unlock()
		return nil
	}
	m.pending = false
	m.mu.Unlock()
	return m.doExecute()
}

func (m *Machine) doExecute() error {
	m.mu.Lock()
	m.stage = model.STAGE_EXECUTING
	m.mu.Unlock()

	call, err := m.BuildPayload()
	if err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		logger.Warn("payload build failed, recording placeholder result", zap.String("run", m.Id), zap.Error(err))
		m.result = &model.ExecutionResult{Placeholder: true, Message: err.Error()}
		m.stage = model.STAGE_RESULT
		return nil
	}
	response, status, err := m.send(call)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// degrade to a placeholder result rather than sticking in executing
		logger.Warn("execution failed, recording placeholder result", zap.String("run", m.Id), zap.Error(err))
		m.result = &model.ExecutionResult{Placeholder: true, Message: err.Error()}
	} else {
		m.result = &model.ExecutionResult{Status: status, Response: response}
	}
	m.stage = model.STAGE_RESULT
	return nil
}

func (m *Machine) requiresAuth() bool {
	return m.action.Auth != nil && m.action.Auth.Type == model.AUTH_SESSION_PASSWORD
}

func (m *Machine) currentFieldsLocked() []model.Field {
	if m.action.Flow == model.FLOW_WIZARD {
		if m.step >= len(m.action.Steps) {
			return nil
		}
		return valueFields(m.action.Steps[m.step].Form)
	}
	return valueFields(m.action.Form)
}

func valueFields(fields []model.Field) []model.Field {
	var out []model.Field
	for _, f := range fields {
		if len(f.Fields) > 0 {
			out = append(out, valueFields(f.Fields)...)
			continue
		}
		if f.IsLayout() {
			continue
		}
		out = append(out, f)
	}
	return out
}

func allValueFields(action *model.Action) []model.Field {
	var out []model.Field
	for _, f := range action.FlatFields() {
		if !f.IsLayout() {
			out = append(out, f)
		}
	}
	return out
}

func (m *Machine) Stage() model.RunStage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

func (m *Machine) StepIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

func (m *Machine) Values() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *Machine) Errors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		out[k] = v
	}
	return out
}

func (m *Machine) Result() *model.ExecutionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

func (m *Machine) AuthRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Machine) Action() *model.Action {
	return m.action
}
