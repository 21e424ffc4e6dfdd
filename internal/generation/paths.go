package generation

import "strings"

// Suffixes are the page name markers configured in the settings file.
type Suffixes struct {
	Document   string
	Cypress    string
	Playwright string
	Evaluator  string
}

// DestinationPath names the page a model writes its output to.
//
// Evaluations and test documents append their suffix to the source slug.
// Script models swap the first occurrence of the document suffix for their
// own; when the slug does not contain it, the destination equals the source
// and substituted is false.
func DestinationPath(model Model, slug string, suffixes Suffixes) (path string, substituted bool) {
	switch model {
	case ModelEvaluate:
		return slug + "_" + suffixes.Evaluator, true
	case ModelDocument:
		return slug + "_" + suffixes.Document, true
	case ModelCypress:
		return replaceSuffix(slug, suffixes.Document, suffixes.Cypress)
	case ModelPlaywright:
		return replaceSuffix(slug, suffixes.Document, suffixes.Playwright)
	default:
		return slug, false
	}
}

func replaceSuffix(slug, from, to string) (string, bool) {
	if from == "" || !strings.Contains(slug, from) {
		return slug, false
	}
	return strings.Replace(slug, from, to, 1), true
}
