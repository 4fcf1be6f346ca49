package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Every JSON response carries a boolean "success". Failures add a single
// human-readable "error" and, for validation failures, per-field details.
type failureResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func success(c echo.Context, data map[string]any) error {
	return successWithStatus(c, http.StatusOK, data)
}

func successWithStatus(c echo.Context, code int, data map[string]any) error {
	body := make(map[string]any, len(data)+1)
	for key, value := range data {
		body[key] = value
	}
	body["success"] = true
	return c.JSON(code, body)
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, failureResponse{
		Success: false,
		Error:   message,
	})
}

func failValidation(c echo.Context, fieldErrors map[string]string) error {
	return c.JSON(http.StatusBadRequest, failureResponse{
		Success: false,
		Error:   "Validation failed",
		Fields:  fieldErrors,
	})
}

func failNotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message)
}

func internalError(c echo.Context, message string) error {
	return fail(c, http.StatusInternalServerError, message)
}

func decodeJSONBody(c echo.Context, dest any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
