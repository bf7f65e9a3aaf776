// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"catree/internal/models"
	"catree/internal/slug"
)

// Field limits match the column sizes of the categories and pages tables.
const (
	MaxNameLen = 255
	MaxSlugLen = 255
)

var (
	nameRules = fmt.Sprintf("required,max=%d", MaxNameLen)
	slugRules = fmt.Sprintf("required,max=%d,slug", MaxSlugLen)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register slug validation: %v", err))
	}
	return v
}

// Validate checks the persisted fields of a category.
func Validate(c *models.Category) error {
	if err := check("name", strings.TrimSpace(c.Name), nameRules); err != nil {
		return err
	}
	return check("slug", c.Slug, slugRules)
}

// ValidatePage checks the persisted fields of a page.
func ValidatePage(p *models.Page) error {
	if err := check("title", strings.TrimSpace(p.Title), nameRules); err != nil {
		return err
	}
	return check("slug", p.Slug, slugRules)
}

// check validates one field against rules and reports the first failing rule.
func check(field, value, rules string) error {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	ve := &ValidationError{Field: field}
	switch fe.Tag() {
	case "required":
		ve.Err = ErrBlank
	case "max":
		ve.Err = ErrTooLong
	case "slug":
		ve.Err = ErrSlugFormat
	default:
		ve.Err = errors.New(fe.Error())
	}
	return ve
}
