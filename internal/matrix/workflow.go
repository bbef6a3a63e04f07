package matrix

import (
	"fmt"
	"slices"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

// Step is one extraction within a workflow.
type Step struct {
	Kind constants.MatrixKind
	// Sheet is both the table key in a session and the sheet name on export.
	Sheet string
	// Prior names the sheet whose table is fed to this step; empty for the first step.
	Prior string
}

// Workflow is an ordered chain of steps exported together as one workbook.
type Workflow struct {
	Name     string
	FileName string
	Steps    []Step
}

const (
	WorkflowDiagnosticPUO            = "diagnostic-puo"
	WorkflowActivitiesResponsibility = "activities-responsibility"
)

var workflows = []Workflow{
	{
		Name:     WorkflowDiagnosticPUO,
		FileName: "matrices_generadas.xlsx",
		Steps: []Step{
			{Kind: constants.Diagnostic, Sheet: "Matriz_Diagnostico"},
			{Kind: constants.PUO, Sheet: "Matriz_PUO", Prior: "Matriz_Diagnostico"},
		},
	},
	{
		Name:     WorkflowActivitiesResponsibility,
		FileName: "matriz_responsabilidades.xlsx",
		Steps: []Step{
			{Kind: constants.Activities, Sheet: "Lista_Actividades"},
			{Kind: constants.Responsibility, Sheet: "Matriz_Responsabilidades", Prior: "Lista_Actividades"},
		},
	},
}

// WorkflowByName looks up a registered workflow.
func WorkflowByName(name string) (Workflow, error) {
	for _, w := range workflows {
		if w.Name == name {
			w.Steps = slices.Clone(w.Steps)
			return w, nil
		}
	}
	return Workflow{}, fmt.Errorf("unknown workflow %q", name)
}

// WorkflowNames lists registered workflows in registration order.
func WorkflowNames() []string {
	out := make([]string, len(workflows))
	for i, w := range workflows {
		out[i] = w.Name
	}
	return out
}

// StepFor returns the step of w that produces kind.
func (w Workflow) StepFor(kind constants.MatrixKind) (Step, int, bool) {
	for i, s := range w.Steps {
		if s.Kind == kind {
			return s, i, true
		}
	}
	return Step{}, -1, false
}

// Sheets returns the sheet names of w in step order.
func (w Workflow) Sheets() []string {
	out := make([]string, len(w.Steps))
	for i, s := range w.Steps {
		out[i] = s.Sheet
	}
	return out
}
