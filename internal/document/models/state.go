package models

import dErrors "notaria/pkg/domain-errors"

// State is a document lifecycle state.
type State string

const (
	StateBorrador               State = "borrador"
	StateDatosCompletados       State = "datos_completados"
	StateVerificacionPendiente  State = "verificacion_pendiente"
	StateVerificado             State = "verificado"
	StateFirmaPendiente         State = "firma_pendiente"
	StateFirmadoCliente         State = "firmado_cliente"
	StateRevisionCertificador   State = "revision_certificador"
	StateAprobadoCertificador   State = "aprobado_certificador"
	StateCertificacionPendiente State = "certificacion_pendiente"
	StateCertificado            State = "certificado"
	StateEntregado              State = "entregado"
	StateRechazado              State = "rechazado"
	StateCancelado              State = "cancelado"
)

// InitialState is the only state a document can be created in.
const InitialState = StateBorrador

// AllStates lists every state along the happy path, then the escape states.
var AllStates = []State{
	StateBorrador,
	StateDatosCompletados,
	StateVerificacionPendiente,
	StateVerificado,
	StateFirmaPendiente,
	StateFirmadoCliente,
	StateRevisionCertificador,
	StateAprobadoCertificador,
	StateCertificacionPendiente,
	StateCertificado,
	StateEntregado,
	StateRechazado,
	StateCancelado,
}

func (s State) String() string { return string(s) }

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further work is expected on the document.
// Terminal states are informational only: transitions are not guarded by state.
func (s State) IsTerminal() bool {
	return s == StateEntregado || s == StateRechazado || s == StateCancelado
}

// ParseState validates a state read from a request filter.
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown state: "+v)
	}
	return s, nil
}
