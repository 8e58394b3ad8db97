// Package policy holds the static authorization tables of the lifecycle:
// which roles may fire each action, and which roles may call the other
// document operations. Tables are built once and never mutated, so a
// *Policy is safe for concurrent use without locking.
//
// The transition table restricts who may fire an action, not from which
// state. The admin role bypasses both tables.
package policy

import (
	"slices"
	"strings"

	"notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

// Rule is one row of the transition table.
type Rule struct {
	action  models.Action
	next    models.State
	allowed []domain.Role
}

func (r Rule) Action() models.Action { return r.action }

// NextState is the state the document moves to when the action fires.
func (r Rule) NextState() models.State { return r.next }

// AllowedRoles returns a copy of the non-admin roles allowed to fire the action.
func (r Rule) AllowedRoles() []domain.Role { return slices.Clone(r.allowed) }

// Allows reports whether role may fire the action. Admin always may.
func (r Rule) Allows(role domain.Role) bool {
	return role.IsAdmin() || slices.Contains(r.allowed, role)
}

// Permission names a non-transition operation.
type Permission string

const (
	PermDocumentsCreate  Permission = "documents:create"
	PermDocumentsRead    Permission = "documents:read"
	PermDocumentsReadAll Permission = "documents:read_all"
	PermDocumentsUpdate  Permission = "documents:update"
	PermDocumentsDelete  Permission = "documents:delete"
	PermSignaturesApply  Permission = "signatures:apply"
	PermCertifierUpload  Permission = "certifier:upload"
)

// Policy is the immutable pair of tables.
type Policy struct {
	rules       map[models.Action]Rule
	permissions map[Permission][]domain.Role
}

func rule(action models.Action, next models.State, roles ...domain.Role) Rule {
	return Rule{action: action, next: next, allowed: roles}
}

// Default builds the production tables.
func Default() *Policy {
	const (
		gestor       = domain.RoleGestor
		cliente      = domain.RoleCliente
		certificador = domain.RoleCertificador
	)

	rules := []Rule{
		rule(models.ActionCompletarDatos, models.StateDatosCompletados, gestor, cliente),
		rule(models.ActionSolicitarVerificacion, models.StateVerificacionPendiente, gestor, cliente),
		rule(models.ActionVerificar, models.StateVerificado, gestor),
		rule(models.ActionSolicitarFirma, models.StateFirmaPendiente, gestor),
		rule(models.ActionFirmarCliente, models.StateFirmadoCliente, cliente, gestor),
		rule(models.ActionEnviarCertificador, models.StateRevisionCertificador, gestor),
		rule(models.ActionAprobarCertificador, models.StateAprobadoCertificador, certificador),
		rule(models.ActionSolicitarCertificacion, models.StateCertificacionPendiente, gestor, certificador),
		rule(models.ActionCertificacionDigital, models.StateCertificado, certificador),
		rule(models.ActionEntregar, models.StateEntregado, gestor),
		rule(models.ActionRechazar, models.StateRechazado, gestor, certificador),
		rule(models.ActionCancelar, models.StateCancelado, gestor, cliente),
	}

	permissions := map[Permission][]domain.Role{
		PermDocumentsCreate:  {gestor, cliente},
		PermDocumentsRead:    {gestor, cliente, certificador},
		PermDocumentsReadAll: {gestor, certificador},
		PermDocumentsUpdate:  {gestor, cliente},
		PermDocumentsDelete:  {},
		PermSignaturesApply:  {cliente, gestor},
		PermCertifierUpload:  {certificador},
	}

	return New(rules, permissions)
}

// New builds a policy from explicit tables. Inputs are copied.
func New(rules []Rule, permissions map[Permission][]domain.Role) *Policy {
	p := &Policy{
		rules:       make(map[models.Action]Rule, len(rules)),
		permissions: make(map[Permission][]domain.Role, len(permissions)),
	}
	for _, r := range rules {
		r.allowed = slices.Clone(r.allowed)
		p.rules[r.action] = r
	}
	for perm, roles := range permissions {
		p.permissions[perm] = slices.Clone(roles)
	}
	return p
}

// NewRule exposes rule construction for custom tables in tests and tooling.
func NewRule(action models.Action, next models.State, roles ...domain.Role) Rule {
	return rule(action, next, slices.Clone(roles)...)
}

// Rule looks up an action. Unknown actions fail with CodeUnknownAction.
func (p *Policy) Rule(action models.Action) (Rule, error) {
	r, ok := p.rules[action]
	if !ok {
		return Rule{}, dErrors.New(dErrors.CodeUnknownAction, "unknown action: "+string(action))
	}
	return r, nil
}

// Authorize resolves the rule for action and checks that principal may fire
// it. The error names the required role set and never the document state.
func (p *Policy) Authorize(principal domain.Principal, action models.Action) (Rule, error) {
	r, err := p.Rule(action)
	if err != nil {
		return Rule{}, err
	}
	if !r.Allows(principal.Role) {
		return Rule{}, dErrors.New(dErrors.CodeForbidden,
			"action "+string(action)+" requires role: "+roleList(r.allowed))
	}
	return r, nil
}

// Actions lists every known action in lexical order.
func (p *Policy) Actions() []models.Action {
	actions := make([]models.Action, 0, len(p.rules))
	for a := range p.rules {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}

// Can reports whether role holds perm. Admin holds every permission.
func (p *Policy) Can(role domain.Role, perm Permission) bool {
	if role.IsAdmin() {
		return true
	}
	return slices.Contains(p.permissions[perm], role)
}

// Require fails with CodeForbidden unless principal holds perm.
func (p *Policy) Require(principal domain.Principal, perm Permission) error {
	if p.Can(principal.Role, perm) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden,
		"operation "+string(perm)+" requires role: "+roleList(p.permissions[perm]))
}

// roleList renders admin followed by the allowed roles in table order.
func roleList(roles []domain.Role) string {
	names := []string{domain.RoleAdmin.String()}
	for _, r := range roles {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}
