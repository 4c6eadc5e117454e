package model

type RunStage string

const STAGE_FORM RunStage = "form"
const STAGE_CONFIRM RunStage = "confirm"
const STAGE_EXECUTING RunStage = "executing"
const STAGE_RESULT RunStage = "result"

// ExecutionResult records the outcome of the final submit. Placeholder is set
// when the network call failed and a stand-in result was recorded instead.
type ExecutionResult struct {
	Status      int    `json:"status"`
	Response    any    `json:"response,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Message     string `json:"message,omitempty"`
}

type RunStartRequest struct {
	Action  string `json:"action"`
	Account string `json:"account,omitempty"`
	Bucket  string `json:"bucket,omitempty"`
}

type RunValueRequest struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type UnlockRequest struct {
	Address string `json:"address"`
	Secret  string `json:"secret"`
}

// RunView is the REST-facing snapshot of a workflow run.
type RunView struct {
	Id           string            `json:"id"`
	Action       string            `json:"action"`
	Stage        RunStage          `json:"stage"`
	Step         int               `json:"step"`
	Values       map[string]any    `json:"values,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Payload      *RemoteCall       `json:"payload,omitempty"`
	AuthRequired bool              `json:"authRequired,omitempty"`
	Result       *ExecutionResult  `json:"result,omitempty"`
}
