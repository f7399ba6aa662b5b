package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"nutrifit/internal/apperror"

	"github.com/go-playground/validator/v10"
)

type scope string

const (
	scopePlan scope = "plan"
	scopeMeal scope = "meal"
	scopeUser scope = "user"

	// tagType marks a JSON type mismatch.
	tagType = "type"
)

func key(s scope, field, tag string) string {
	return string(s) + ":" + field + ":" + tag
}

var messages = map[string]string{
	key(scopePlan, "nombre", "required"):      `"nombre" es un campo requerido`,
	key(scopePlan, "nombre", "min"):           `"nombre" no puede estar vacío`,
	key(scopePlan, "nombre", tagType):         `"nombre" debe ser un texto`,
	key(scopePlan, "descripcion", tagType):    `"descripcion" del plan debe ser un texto`,
	key(scopePlan, "fechaInicio", "required"): `"fechaInicio" es un campo requerido`,
	key(scopePlan, "fechaInicio", "isodate"):  `"fechaInicio" debe estar en formato ISO (YYYY-MM-DD)`,
	key(scopePlan, "fechaInicio", tagType):    `"fechaInicio" debe ser una fecha válida`,
	key(scopePlan, "fechaFin", "required"):    `"fechaFin" es un campo requerido`,
	key(scopePlan, "fechaFin", "isodate"):     `"fechaFin" debe estar en formato ISO (YYYY-MM-DD)`,
	key(scopePlan, "fechaFin", tagType):       `"fechaFin" debe ser una fecha válida`,
	key(scopePlan, "fechaFin", tagDateOrder):  `"fechaFin" debe ser posterior a "fechaInicio"`,
	key(scopePlan, "usuarioId", "required"):   `"usuarioId" es un campo requerido`,
	key(scopePlan, "usuarioId", "gt"):         `"usuarioId" debe ser un número positivo`,
	key(scopePlan, "usuarioId", tagType):      `"usuarioId" debe ser un número`,
	key(scopePlan, "comidas", tagType):        `"comidas" debe ser una lista`,
	key(scopePlan, "", tagNonEmpty):           `Debe enviarse al menos un campo para actualizar el plan.`,

	key(scopeMeal, "tipo", "required"):        `El "tipo" de comida es requerido`,
	key(scopeMeal, "tipo", "oneof"):           `El "tipo" de comida debe ser uno de [desayuno, almuerzo, cena, snack]`,
	key(scopeMeal, "tipo", tagType):           `El "tipo" de comida debe ser texto`,
	key(scopeMeal, "hora", "hhmm"):            `"hora" de comida debe estar en formato HH:MM (e.g., 08:30 o 14:00)`,
	key(scopeMeal, "hora", tagType):           `"hora" de comida debe ser texto`,
	key(scopeMeal, "descripcion", "required"): `La "descripcion" de la comida es requerida`,
	key(scopeMeal, "descripcion", tagType):    `La "descripcion" de la comida debe ser texto`,

	key(scopeUser, "nombre", "required"):   `"nombre" es un campo requerido`,
	key(scopeUser, "email", "required"):    `"email" es un campo requerido`,
	key(scopeUser, "email", "email"):       `"email" debe ser un email válido`,
	key(scopeUser, "password", "required"): `"password" es un campo requerido`,
	key(scopeUser, "password", "min"):      `"password" debe tener al menos 6 caracteres`,
}

func fieldMessage(fe validator.FieldError) string {
	s := scopePlan
	switch ns := fe.Namespace(); {
	case strings.Contains(ns, "comidas["):
		s = scopeMeal
	case strings.HasPrefix(ns, "RegisterRequest."), strings.HasPrefix(ns, "LoginRequest."):
		s = scopeUser
	}
	if msg, ok := messages[key(s, fe.Field(), fe.Tag())]; ok {
		return msg
	}
	return fmt.Sprintf("%q no es válido (%s)", fe.Field(), fe.Tag())
}

func typeMessage(err *json.UnmarshalTypeError) string {
	path := strings.Split(err.Field, ".")
	field := path[len(path)-1]
	s := scopePlan
	if len(path) > 1 && path[0] == "comidas" {
		s = scopeMeal
	}
	if s == scopePlan && field == "usuarioId" && strings.HasPrefix(err.Value, "number") {
		return `"usuarioId" debe ser un entero`
	}
	if msg, ok := messages[key(s, field, tagType)]; ok {
		return msg
	}
	if field == "" {
		return "El cuerpo de la solicitud debe ser un objeto JSON."
	}
	return fmt.Sprintf("%q tiene un tipo inválido", field)
}

// DateOrderError is the error for a plan whose end date does not follow its
// start date.
func DateOrderError() error {
	return apperror.Validation(messages[key(scopePlan, "fechaFin", tagDateOrder)])
}
