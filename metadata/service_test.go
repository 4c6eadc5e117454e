package metadata

import (
	"testing"

	"github.com/chainctl/actioneer/model"
	"github.com/stretchr/testify/require"
)

func validManifest() model.Manifest {
	return model.Manifest{
		Version: "1",
		Actions: []model.Action{{
			Id:       "send",
			Label:    "Send",
			Endpoint: model.Endpoint{Path: "/tx/send"},
			Form: []model.Field{
				{Type: "address", Name: "to"},
				{Type: "amount", Name: "amount"},
			},
		}},
	}
}

func TestSaveAndGet(t *testing.T) {
	svc := NewService(NewInMemStorage())
	require.NoError(t, svc.SaveManifest(validManifest()))

	manifest, err := svc.GetManifest()
	require.NoError(t, err)
	require.Equal(t, "1", manifest.Version)

	action, err := svc.GetAction("send")
	require.NoError(t, err)
	require.Equal(t, "Send", action.Label)

	_, err = svc.GetAction("burn")
	require.Error(t, err)
}

func TestValidateManifest(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"wizard needs a step":     testWizardNoSteps,
		"non-wizard needs a form": testNoForm,
		"duplicate field names":   testDuplicateNames,
		"unknown flow kind":       testUnknownFlow,
	} {
		t.Run(scenario, fn)
	}
}

func testWizardNoSteps(t *testing.T) {
	m := validManifest()
	m.Actions[0].Flow = model.FLOW_WIZARD
	m.Actions[0].Form = nil
	err := ValidateManifest(&m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one step")
}

func testNoForm(t *testing.T) {
	m := validManifest()
	m.Actions[0].Form = nil
	err := ValidateManifest(&m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must have a form")
}

func testDuplicateNames(t *testing.T) {
	m := validManifest()
	m.Actions[0].Form = append(m.Actions[0].Form, model.Field{Type: "text", Name: "to"})
	err := ValidateManifest(&m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate field name")
}

func testUnknownFlow(t *testing.T) {
	m := validManifest()
	m.Actions[0].Flow = "carousel"
	err := ValidateManifest(&m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown flow kind")
}
