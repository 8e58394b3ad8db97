package models

// Action names a lifecycle transition.
type Action string

const (
	ActionCompletarDatos         Action = "completar_datos"
	ActionSolicitarVerificacion  Action = "solicitar_verificacion"
	ActionVerificar              Action = "verificar"
	ActionSolicitarFirma         Action = "solicitar_firma"
	ActionFirmarCliente          Action = "firmar_cliente"
	ActionEnviarCertificador     Action = "enviar_certificador"
	ActionAprobarCertificador    Action = "aprobar_certificador"
	ActionSolicitarCertificacion Action = "solicitar_certificacion"
	ActionCertificacionDigital   Action = "certificacion_digital"
	ActionEntregar               Action = "entregar"
	ActionRechazar               Action = "rechazar"
	ActionCancelar               Action = "cancelar"
)

func (a Action) String() string { return string(a) }
