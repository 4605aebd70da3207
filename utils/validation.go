/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// use a single instance, it caches struct info
var (
	validate *validator.Validate
	trans    ut.Translator
)

// configuration specific tags, registered next to the validator built-ins
var customTags = []struct {
	tag     string
	message string
	check   func(value string) bool
}{
	// empty values pass, presence is checked with required / required_if
	{"tablename", "{0} must be a table name, optionally schema qualified", func(value string) bool {
		return value == "" || ValidateTableName(value) == nil
	}},
	{"timeofday", "{0} must be a time of day as HH:MM", func(value string) bool {
		_, err := time.Parse("15:04", value)
		return value == "" || err == nil
	}},
	{"noterminator", "{0} must not end with ';'", func(value string) bool {
		return !strings.HasSuffix(strings.TrimSpace(value), ";")
	}},
}

func translateError(err error) []string {
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []string{err.Error()}
	}

	errs := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		errs = append(errs, e.Translate(trans))
	}
	return errs
}

// Validate checks the `validate` tags of structure; field names in the returned
// error are the json tags, i.e. the configuration keys.
func Validate[T any](structure T) error {
	if err := validate.Struct(structure); err != nil {
		return errors.New(strings.Join(translateError(err), "; "))
	}
	return nil
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	for _, custom := range customTags {
		check := custom.check
		if err := validate.RegisterValidation(custom.tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			panic(err)
		}

		message := custom.message
		tag := custom.tag
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, message, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				translated, _ := ut.T(tag, fe.Field())
				return translated
			},
		)
		if err != nil {
			panic(err)
		}
	}
}
