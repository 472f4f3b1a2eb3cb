package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vodum/console/internal/api"
	"github.com/vodum/console/internal/output"
)

// toCLIError maps command errors onto CLIErrors with remediation hints.
func toCLIError(err error) *output.CLIError {
	var ce *output.CLIError
	if errors.As(err, &ce) {
		return ce
	}

	baseURL := currentConfig().Server.URL
	switch {
	case api.IsUnavailable(err):
		return output.BackendUnavailableError(baseURL, err)
	case api.StatusCode(err) == http.StatusUnauthorized, api.StatusCode(err) == http.StatusForbidden:
		return output.NewCLIError(fmt.Sprintf("VODUM at %s refused the request", baseURL)).
			WithCause(err.Error()).
			WithCode("UNAUTHORIZED").
			WithHint(output.HintUnauthorized)
	case errors.Is(err, api.ErrNotJSON):
		return output.NewCLIError("VODUM did not answer with JSON").
			WithCause(err.Error()).
			WithCode("NOT_JSON").
			WithHint(output.HintBackendUnavailable)
	case api.IsFetchError(err):
		return output.NewCLIError("fetch failed").WithCause(err.Error()).WithCode("FETCH_FAILED")
	case api.IsCommandError(err):
		return output.NewCLIError("command failed").WithCause(err.Error()).WithCode("COMMAND_FAILED")
	}
	return output.NewCLIError(err.Error())
}
