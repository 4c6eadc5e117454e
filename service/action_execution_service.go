package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chainctl/actioneer/ds"
	"github.com/chainctl/actioneer/fee"
	"github.com/chainctl/actioneer/flow"
	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/metadata"
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/session"
	"github.com/chainctl/actioneer/util"
	"github.com/google/uuid"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const defaultBucket = "avg"

// ActionExecutionService owns the live workflow runs. Abandoned runs are
// evicted after the run TTL.
type ActionExecutionService struct {
	metadata *metadata.Service
	network  *model.Network
	fetcher  *ds.Fetcher
	session  *session.Store
	runs     *c.Cache
	client   *http.Client
	resumer  *util.Worker
	wg       sync.WaitGroup
}

func NewActionExecutionService(meta *metadata.Service, network *model.Network, fetcher *ds.Fetcher, store *session.Store, runTTL time.Duration) *ActionExecutionService {
	s := &ActionExecutionService{
		metadata: meta,
		network:  network,
		fetcher:  fetcher,
		session:  store,
		runs:     c.New(runTTL, 5*time.Minute),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	s.resumer = util.NewWorker("unlock-resumer", &s.wg, func(task util.Task) error {
		machine := task.(*flow.Machine)
		return machine.ResumeAfterUnlock()
	}, 64)
	s.resumer.Start()
	store.OnUnlock(s.resumePending)
	return s
}

func (s *ActionExecutionService) Stop() {
	s.resumer.Stop()
	s.wg.Wait()
}

// StartRun opens a new workflow run for the named action, resolving fees and
// prefetching field data sources best-effort.
func (s *ActionExecutionService) StartRun(req model.RunStartRequest) (*model.RunView, error) {
	action, err := s.metadata.GetAction(req.Action)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	machine := flow.NewMachine(id, action, s.network, s.session, s.send)
	machine.SetAccount(req.Account)

	s.resolveFees(machine, action, req)
	s.prefetchSources(machine, action, req.Account)

	s.runs.SetDefault(id, machine)
	logger.Info("run started", zap.String("run", id), zap.String("action", action.Id))
	return s.view(machine), nil
}

func (s *ActionExecutionService) GetRun(id string) (*model.RunView, error) {
	machine, err := s.machine(id)
	if err != nil {
		return nil, err
	}
	return s.view(machine), nil
}

func (s *ActionExecutionService) SetValue(id string, req model.RunValueRequest) (*model.RunView, error) {
	machine, err := s.machine(id)
	if err != nil {
		return nil, err
	}
	if err := machine.SetValue(req.Name, req.Value); err != nil {
		return nil, err
	}
	return s.view(machine), nil
}

func (s *ActionExecutionService) Continue(id string) (*model.RunView, error) {
	machine, err := s.machine(id)
	if err != nil {
		return nil, err
	}
	if err := machine.Continue(); err != nil {
		return nil, err
	}
	return s.view(machine), nil
}

func (s *ActionExecutionService) Back(id string) (*model.RunView, error) {
	machine, err := s.machine(id)
	if err != nil {
		return nil, err
	}
	if err := machine.Back(); err != nil {
		return nil, err
	}
	return s.view(machine), nil
}

func (s *ActionExecutionService) Done(id string) (*model.RunView, error) {
	machine, err := s.machine(id)
	if err != nil {
		return nil, err
	}
	if err := machine.Done(); err != nil {
		return nil, err
	}
	return s.view(machine), nil
}

// resumePending fires every suspended execution after a successful unlock.
// Each machine resumes at most once; non-pending machines no-op.
func (s *ActionExecutionService) resumePending() {
	for _, item := range s.runs.Items() {
		machine := item.Object.(*flow.Machine)
		s.resumer.Sender() <- machine
	}
}

func (s *ActionExecutionService) machine(id string) (*flow.Machine, error) {
	value, found := s.runs.Get(id)
	if !found {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return value.(*flow.Machine), nil
}

func (s *ActionExecutionService) view(machine *flow.Machine) *model.RunView {
	view := &model.RunView{
		Id:           machine.Id,
		Action:       machine.Action().Id,
		Stage:        machine.Stage(),
		Step:         machine.StepIndex(),
		Values:       machine.Values(),
		Errors:       machine.Errors(),
		AuthRequired: machine.AuthRequired(),
		Result:       machine.Result(),
	}
	if view.Stage == model.STAGE_CONFIRM {
		view.Summary = machine.Summary()
	}
	view.Payload = machine.PayloadPreview()
	return view
}

// resolveFees runs the waterfall over the action's fee policy, falling back
// to the network default. Failure means "fee unavailable", not a dead run.
func (s *ActionExecutionService) resolveFees(machine *flow.Machine, action *model.Action, req model.RunStartRequest) {
	cfg := action.Fee
	if cfg == nil {
		cfg = s.network.Fees
	}
	if cfg == nil {
		return
	}
	bucket := req.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}
	callerCtx := map[string]any{"account": map[string]any{"address": req.Account}}
	resolution, err := fee.Resolve(context.Background(), s.fetcher, cfg, bucket, callerCtx)
	if err != nil {
		logger.Warn("fee unavailable", zap.String("action", action.Id), zap.Error(err))
		return
	}
	machine.SetFees(resolution)
}

// prefetchSources loads every field-declared data source into the run's
// template context. Paged sources are driven to exhaustion so option lists
// see the full set. Individual fetch failures are tolerated.
func (s *ActionExecutionService) prefetchSources(machine *flow.Machine, action *model.Action, account string) {
	callerCtx := map[string]any{"account": map[string]any{"address": account}}
	for _, f := range action.FlatFields() {
		if f.Source == "" {
			continue
		}
		leaf, err := ds.Resolve(s.network, f.Source)
		if err != nil {
			logger.Warn("data source unresolved", zap.String("field", f.Name), zap.String("source", f.Source), zap.Error(err))
			continue
		}
		var value any
		if leaf.Paging != nil {
			value, err = s.fetcher.FetchAll(context.Background(), f.Source, callerCtx)
		} else {
			value, err = s.fetcher.Fetch(context.Background(), f.Source, callerCtx)
		}
		if err != nil {
			logger.Warn("data source fetch failed", zap.String("field", f.Name), zap.String("source", f.Source), zap.Error(err))
			continue
		}
		machine.SetDsValue(f.Source, value)
	}
}

// send executes the final built request against the host network layer.
func (s *ActionExecutionService) send(call *model.RemoteCall) (any, int, error) {
	var reader io.Reader
	if call.Body != "" {
		reader = strings.NewReader(call.Body)
	}
	req, err := http.NewRequest(call.Method, call.URL, reader)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}
	return parsed, resp.StatusCode, nil
}
