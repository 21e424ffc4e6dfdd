package generation

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Model names one of the transformations offered on the dashboard.
type Model string

const (
	ModelEvaluate   Model = "evaluate"
	ModelDocument   Model = "document"
	ModelCypress    Model = "cypress"
	ModelPlaywright Model = "playwright"
)

// ErrUnknownModel reports a model name outside the supported set.
var ErrUnknownModel = eris.New("unknown generation model")

var modelAliases = map[string]Model{
	"eval": ModelEvaluate,
}

var modelLabels = map[Model]string{
	ModelEvaluate:   "Avaliar Estória do Usuário / Evaluate User Story",
	ModelDocument:   "Gerador de Casos de Testes / Generate Test Case",
	ModelCypress:    "Gerador de Script em Cypress / Generate Cypress Script",
	ModelPlaywright: "Gerador de Script em Playwright / Generate Playwright Script",
}

// Models lists the supported models in dashboard order.
func Models() []Model {
	return []Model{ModelEvaluate, ModelDocument, ModelCypress, ModelPlaywright}
}

// ParseModel resolves a path segment to a Model. Matching is exact; "eval" is kept for old dashboard links.
func ParseModel(raw string) (Model, error) {
	candidate := strings.TrimSpace(raw)
	if alias, ok := modelAliases[candidate]; ok {
		return alias, nil
	}

	model := Model(candidate)
	if _, ok := modelLabels[model]; !ok {
		return "", eris.Wrapf(ErrUnknownModel, "model %q", raw)
	}
	return model, nil
}

func (m Model) String() string {
	return string(m)
}

// Label is the bilingual name shown in the model selector.
func (m Model) Label() string {
	if label, ok := modelLabels[m]; ok {
		return label
	}
	return string(m)
}
