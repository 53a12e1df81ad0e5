package request

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/deflogis/convoy/internal/model"
)

var validate = validator.New()

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// DeployConvoy is the payload for POST /api/convoys/deploy: the convoy to
// commit plus the analysis whose provenance trail is to be produced.
type DeployConvoy struct {
	Convoy   model.Convoy        `json:"convoy" validate:"required"`
	Analysis model.RouteAnalysis `json:"analysis" validate:"required"`
}

// UserCredentials is the payload for signup and login.
type UserCredentials struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Role string `json:"role" validate:"required,oneof=COMMANDER LOGISTICS_OFFICER FIELD_AGENT"`
}
