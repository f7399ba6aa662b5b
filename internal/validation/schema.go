// Package validation holds the declarative rules for plan payloads. Every check
// here runs before the store is touched.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

const (
	tagDateOrder = "gtdate"
	tagNonEmpty  = "nonempty"
)

// Schema validates plan payloads.
type Schema struct {
	validate *validator.Validate
}

// NewSchema builds a Schema with the custom rules registered.
func NewSchema() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Both validators accept "" so that a present-but-empty optional value
	// reaches the caller as "no value".
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || hhmmPattern.MatchString(s)
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})

	v.RegisterStructValidation(createPlanRules, CreatePlanRequest{})
	v.RegisterStructValidation(updatePlanRules, UpdatePlanRequest{})

	return &Schema{validate: v}
}

func createPlanRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreatePlanRequest)
	checkDateOrder(sl, req.StartDate, req.EndDate)
}

func updatePlanRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(UpdatePlanRequest)
	if req.Empty() {
		sl.ReportError(req, "", "", tagNonEmpty, "")
		return
	}
	if req.StartDate != nil && req.EndDate != nil {
		checkDateOrder(sl, *req.StartDate, *req.EndDate)
	}
}

func checkDateOrder(sl validator.StructLevel, rawStart, rawEnd string) {
	start, errStart := models.ParseDate(rawStart)
	end, errEnd := models.ParseDate(rawEnd)
	if errStart != nil || errEnd != nil {
		// Already reported by the isodate rule.
		return
	}
	if !end.After(start) {
		sl.ReportError(rawEnd, "fechaFin", "EndDate", tagDateOrder, "fechaInicio")
	}
}

// DecodeCreatePlan parses and validates a create-plan body.
func (s *Schema) DecodeCreatePlan(body []byte) (*CreatePlanRequest, error) {
	var req CreatePlanRequest
	if err := decodeStrict(body, &req); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeUpdatePlan parses and validates a partial update body.
func (s *Schema) DecodeUpdatePlan(body []byte) (*UpdatePlanRequest, error) {
	var req UpdatePlanRequest
	if err := decodeStrict(body, &req); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateCreatePlan validates an already decoded create request.
func (s *Schema) ValidateCreatePlan(req *CreatePlanRequest) error {
	if req == nil {
		return apperror.Validation("El cuerpo de la solicitud es requerido.")
	}
	return s.check(*req)
}

// ValidateUpdatePlan validates an already decoded update request.
func (s *Schema) ValidateUpdatePlan(req *UpdatePlanRequest) error {
	if req == nil {
		return apperror.Validation(messages[key(scopePlan, "", tagNonEmpty)])
	}
	return s.check(*req)
}

func (s *Schema) check(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperror.Validation(fieldMessage(fieldErrs[0]))
	}
	return apperror.Validation(err.Error())
}

// DecodeRegister parses and validates a registration body.
func (s *Schema) DecodeRegister(body []byte) (*RegisterRequest, error) {
	var req RegisterRequest
	if err := decodeStrict(body, &req); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeLogin parses and validates a login body.
func (s *Schema) DecodeLogin(body []byte) (*LoginRequest, error) {
	var req LoginRequest
	if err := decodeStrict(body, &req); err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseUserID validates a user id taken from a URL path.
func ParseUserID(raw string) (uint, error) {
	id, ok := parsePositive(raw)
	if !ok {
		return 0, apperror.Validation("El ID de usuario debe ser un entero positivo.")
	}
	return id, nil
}

// ParsePlanID validates a plan id taken from a URL path.
func ParsePlanID(raw string) (uint, error) {
	id, ok := parsePositive(raw)
	if !ok {
		return 0, apperror.Validation("El ID del plan debe ser un entero positivo.")
	}
	return id, nil
}

func parsePositive(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func decodeStrict(body []byte, out interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperror.Validation("El cuerpo de la solicitud es requerido.")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return apperror.Validation("El cuerpo de la solicitud debe ser un único objeto JSON.")
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.Validation(typeMessage(typeErr))
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperror.Validation("El cuerpo de la solicitud no es un JSON válido.")
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return apperror.Validation(fmt.Sprintf("%s no está permitido", field))
	}
	// Errors returned by Date.UnmarshalJSON and OptionalString.UnmarshalJSON.
	return apperror.Validation(fmt.Sprintf("El cuerpo de la solicitud es inválido: %v", err))
}
