package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type dataResp struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type errResp struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	// Decode body
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		returnErr(w, http.StatusBadRequest, ErrBadRequest, nil)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		returnErr(w, http.StatusBadRequest, ErrBadRequest, nil)
		return false
	}

	// Get struct type
	structType := reflect.TypeOf(v)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	// Validate
	var validationErrs validator.ValidationErrors
	if err := validate.Struct(v); errors.As(err, &validationErrs) {
		errFields := make(map[string]string, len(validationErrs))
		for _, err := range validationErrs {
			field, _ := structType.FieldByName(err.StructField())
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			errFields[name] = err.Error()
		}
		returnErr(w, http.StatusBadRequest, ErrBadRequest, errFields)
		return false
	} else if err != nil {
		returnErr(w, http.StatusBadRequest, ErrBadRequest, nil)
		return false
	}

	return true
}

func returnData(w http.ResponseWriter, code int, data any) {
	marshaled, err := json.Marshal(dataResp{Data: data})
	if err != nil {
		returnErr(w, http.StatusInternalServerError, ErrInternal, nil)
	} else {
		w.WriteHeader(code)
		w.Write(marshaled)
	}
}

func returnErr(w http.ResponseWriter, code int, errType error, fields map[string]string) {
	marshaled, err := json.Marshal(errResp{
		Message: errType.Error(),
		Fields:  fields,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("An error occurred while sending the error response."))
	} else {
		w.WriteHeader(code)
		w.Write(marshaled)
	}
}
