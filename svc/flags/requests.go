package flags

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/humanyze/flagkit/pkg/feature"
)

type createFlagRequest struct {
	Key               string            `json:"key"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Enabled           *bool             `json:"enabled"`
	MinTier           *string           `json:"min_subscription_tier"`
	PercentageRollout *int              `json:"percentage_rollout"`
	StartAt           *time.Time        `json:"start_date"`
	EndAt             *time.Time        `json:"end_date"`
	Metadata          map[string]string `json:"metadata"`
}

func (r createFlagRequest) toFlag() (*feature.Flag, error) {
	opts := []feature.FlagOption{feature.WithDescription(r.Description)}

	if r.Enabled != nil && !*r.Enabled {
		opts = append(opts, feature.Disabled())
	}
	if r.MinTier != nil {
		tier, err := feature.ParseTier(*r.MinTier)
		if err != nil {
			return nil, err
		}
		opts = append(opts, feature.WithMinTier(tier))
	}
	if r.PercentageRollout != nil {
		opts = append(opts, feature.WithRollout(*r.PercentageRollout))
	}
	if r.StartAt != nil {
		opts = append(opts, feature.WithStartAt(*r.StartAt))
	}
	if r.EndAt != nil {
		opts = append(opts, feature.WithEndAt(*r.EndAt))
	}
	if r.Metadata != nil {
		opts = append(opts, feature.WithMetadata(r.Metadata))
	}

	return feature.NewFlag(r.Key, r.Name, opts...), nil
}

// updateFlagRequest decodes a partial flag update. JSON cannot natively
// distinguish an absent field from an explicit null, so decoding goes
// through a raw-message map: absent means "leave unchanged", null means
// "clear" for the nullable fields.
type updateFlagRequest struct {
	patch feature.FlagPatch
}

func (r *updateFlagRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["name"]; ok {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return err
		}
		r.patch.Name = &name
	}
	if v, ok := raw["description"]; ok {
		var description string
		if err := json.Unmarshal(v, &description); err != nil {
			return err
		}
		r.patch.Description = &description
	}
	if v, ok := raw["enabled"]; ok {
		var enabled bool
		if err := json.Unmarshal(v, &enabled); err != nil {
			return err
		}
		r.patch.Enabled = &enabled
	}
	if v, ok := raw["percentage_rollout"]; ok {
		var rollout int
		if err := json.Unmarshal(v, &rollout); err != nil {
			return err
		}
		r.patch.PercentageRollout = &rollout
	}
	if v, ok := raw["metadata"]; ok {
		var md map[string]string
		if err := json.Unmarshal(v, &md); err != nil {
			return err
		}
		r.patch.Metadata = md
	}

	if v, ok := raw["min_subscription_tier"]; ok {
		if isJSONNull(v) {
			r.patch.MinTier = feature.ClearField[feature.Tier]()
		} else {
			var tierName string
			if err := json.Unmarshal(v, &tierName); err != nil {
				return err
			}
			tier, err := feature.ParseTier(tierName)
			if err != nil {
				return err
			}
			r.patch.MinTier = feature.SetField(tier)
		}
	}
	if v, ok := raw["start_date"]; ok {
		field, err := timeField(v)
		if err != nil {
			return err
		}
		r.patch.StartAt = field
	}
	if v, ok := raw["end_date"]; ok {
		field, err := timeField(v)
		if err != nil {
			return err
		}
		r.patch.EndAt = field
	}

	return nil
}

func timeField(v json.RawMessage) (feature.Field[time.Time], error) {
	if isJSONNull(v) {
		return feature.ClearField[time.Time](), nil
	}
	var t time.Time
	if err := json.Unmarshal(v, &t); err != nil {
		return feature.Field[time.Time]{}, err
	}
	return feature.SetField(t), nil
}

func isJSONNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func renderJSONError(w http.ResponseWriter, status int, code, message string) {
	renderJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
