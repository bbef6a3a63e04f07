package matrix

import (
	"fmt"
	"slices"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

// Preset is the default shape and instruction of one matrix kind.
type Preset struct {
	Kind        constants.MatrixKind
	Title       string
	Columns     []string
	Instruction string
	// SequenceColumn, when set, is regenerated as 1..n after every extraction.
	SequenceColumn string
}

var presets = map[constants.MatrixKind]Preset{
	constants.Diagnostic: {
		Kind:    constants.Diagnostic,
		Title:   "Matriz de Diagnóstico",
		Columns: []string{"Proceso", "Actividad", "Problema"},
		Instruction: "A partir de las siguientes entrevistas, extrae los principales procesos, actividades y problemas mencionados. " +
			"Organiza la información en un formato JSON con una lista de objetos, donde cada objeto tenga las claves: 'Proceso', 'Actividad', 'Problema'. " +
			"Asegúrate de que la respuesta sea únicamente el código JSON válido y nada más.",
	},
	constants.PUO: {
		Kind:    constants.PUO,
		Title:   "Matriz PUO",
		Columns: []string{"Problema", "Usuario Afectado", "Objetivo de Mejora"},
		Instruction: "A partir de la siguiente matriz de diagnóstico en formato JSON, crea una matriz PUO. " +
			"Identifica el problema principal, el usuario afectado y define un objetivo claro de mejora. " +
			"Devuelve el resultado en un formato JSON con una lista de objetos, donde cada objeto tenga las claves: 'Problema', 'Usuario Afectado', 'Objetivo de Mejora'. " +
			"Asegúrate de que la respuesta sea únicamente el código JSON válido.",
	},
	constants.Activities: {
		Kind:    constants.Activities,
		Title:   "Lista de Actividades",
		Columns: []string{"Número", "Actividad", "Responsable"},
		Instruction: "A partir de los siguientes documentos, enumera las actividades que se realizan en el proceso, en el orden en que ocurren. " +
			"Devuelve el resultado en un formato JSON con una lista de objetos, donde cada objeto tenga las claves: 'Número', 'Actividad', 'Responsable'. " +
			"Asegúrate de que la respuesta sea únicamente el código JSON válido.",
		SequenceColumn: "Número",
	},
	constants.Responsibility: {
		Kind:    constants.Responsibility,
		Title:   "Matriz de Responsabilidades",
		Columns: []string{"Actividad", "Rol", "Responsabilidad"},
		Instruction: "A partir de la siguiente lista de actividades en formato JSON y de los documentos, crea una matriz de responsabilidades. " +
			"Para cada actividad indica cada rol que participa y su responsabilidad. " +
			"Devuelve el resultado en un formato JSON con una lista de objetos, donde cada objeto tenga las claves: 'Actividad', 'Rol', 'Responsabilidad'. " +
			"Asegúrate de que la respuesta sea únicamente el código JSON válido.",
	},
}

// PresetFor returns the preset of kind.
func PresetFor(kind constants.MatrixKind) (Preset, error) {
	p, ok := presets[kind]
	if !ok {
		return Preset{}, fmt.Errorf("unknown matrix kind %q", kind)
	}
	p.Columns = slices.Clone(p.Columns)
	return p, nil
}
